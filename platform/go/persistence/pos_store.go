package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
)

type PosSale struct {
	Document
	SoldAt time.Time
}

// PosStore persists point-of-sale sales. Sales are append-only.
type PosStore struct {
	db *TenantDB
}

func NewPosStore(db *TenantDB) *PosStore {
	return &PosStore{db: db}
}

func (s *PosStore) CreateSale(ctx context.Context, params CreateDocumentParams) (PosSale, error) {
	doc, _, at, err := createDocument(ctx, s.db, saleDocument, params)
	if err != nil {
		return PosSale{}, err
	}
	return PosSale{Document: doc, SoldAt: at}, nil
}

func (s *PosStore) AddItem(ctx context.Context, saleID uuid.UUID, item entity.LineItem) (Item, error) {
	return addDocumentItem(ctx, s.db, saleDocument, saleID, item)
}

func (s *PosStore) UpdateItem(ctx context.Context, saleID, itemID uuid.UUID, item entity.LineItem) (Item, error) {
	return updateDocumentItem(ctx, s.db, saleDocument, saleID, itemID, item)
}

func (s *PosStore) GetSale(ctx context.Context, filter Filter, id uuid.UUID) (PosSale, error) {
	doc, _, at, err := getDocument(ctx, s.db, saleDocument, filter, id)
	if err != nil {
		return PosSale{}, err
	}
	return PosSale{Document: doc, SoldAt: at}, nil
}

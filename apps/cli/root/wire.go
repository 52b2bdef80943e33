package root

import (
	"github.com/zenGate-Global/palmyra-gym/apps/cli/cmd/auth"
	"github.com/zenGate-Global/palmyra-gym/apps/cli/cmd/bootstrap"
	"github.com/zenGate-Global/palmyra-gym/apps/cli/cmd/reconcile"
	tenantcmd "github.com/zenGate-Global/palmyra-gym/apps/cli/cmd/tenant"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(tenantcmd.Command())
	Root().AddCommand(reconcile.Command())
}

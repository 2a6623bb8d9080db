package permission

import (
	"github.com/frahmantamala/hr-approvals/internal/approval"
)

// Code identifies a permission, e.g. ADVANCES_APPROVE_MANAGER.
type Code string

const (
	AdvancesView Code = "ADVANCES_VIEW"
	RaisesView   Code = "RAISES_VIEW"
	LettersView  Code = "LETTERS_VIEW"

	PermissionsManage    Code = "PERMISSIONS_MANAGE"
	ApprovalChainsManage Code = "APPROVAL_CHAINS_MANAGE"
)

// Module prefixes used to derive per-step approval codes.
const (
	ModuleAdvances = "ADVANCES"
	ModuleRaises   = "RAISES"
	ModuleLetters  = "LETTERS"
)

// ApproveCode returns the code that authorizes deciding a step, e.g.
// ApproveCode("RAISES", approval.StepHR) is RAISES_APPROVE_HR.
func ApproveCode(module string, step approval.Step) Code {
	return Code(module + "_APPROVE_" + string(step))
}

// ViewCode returns the module's read permission.
func ViewCode(module string) Code {
	return Code(module + "_VIEW")
}

// DefaultCatalog is the set of permissions the service knows about.
func DefaultCatalog() []*Permission {
	catalog := []*Permission{
		{Code: PermissionsManage, Name: "Manage permissions", Module: "PERMISSIONS"},
		{Code: ApprovalChainsManage, Name: "Manage approval chains", Module: "APPROVALS"},
	}
	modules := []struct {
		prefix string
		name   string
	}{
		{ModuleAdvances, "advance"},
		{ModuleRaises, "raise"},
		{ModuleLetters, "letter"},
	}
	for _, m := range modules {
		view := ViewCode(m.prefix)
		catalog = append(catalog, &Permission{Code: view, Name: "View " + m.name + " requests", Module: m.prefix})
		for _, step := range approval.ActionableSteps {
			requires := view
			catalog = append(catalog, &Permission{
				Code:     ApproveCode(m.prefix, step),
				Name:     "Approve " + m.name + " requests at " + string(step),
				Module:   m.prefix,
				Requires: &requires,
			})
		}
	}
	return catalog
}

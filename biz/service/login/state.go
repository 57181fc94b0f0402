package login

import (
	"passport/biz/model/domain"
	"passport/biz/model/errs"
)

// checkState gates login on the account state. Only StateNormal passes;
// states without a dedicated error are refused as unavailable.
func checkState(state domain.AccountState) errs.Error {
	if state.IsLoginAllowed() {
		return nil
	}
	if state == domain.StateFreeze {
		return errs.AccountFrozen
	}
	return errs.AccountStateInvalid
}

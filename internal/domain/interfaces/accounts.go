package interfaces

import domaintypes "axolotl/internal/domain/types"

// AccountStore persists the relay account profile.
type AccountStore interface {
	SaveAccountProfile(profile domaintypes.AccountProfile) error
	LoadAccountProfile() (domaintypes.AccountProfile, bool, error)
}

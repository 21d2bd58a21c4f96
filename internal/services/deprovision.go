package services

import (
	"context"
	"errors"
	"sync"

	"challengr-backend/internal/apperr"

	"github.com/rs/zerolog/log"
)

// DeprovisionStep identifies one step of the account-deletion saga
type DeprovisionStep string

const (
	StepReauthenticate  DeprovisionStep = "reauthenticate"
	StepDeleteProfile   DeprovisionStep = "delete_profile"
	StepDeleteAvatar    DeprovisionStep = "delete_avatar"
	StepPurgeUserFolder DeprovisionStep = "purge_user_folder"
	StepDeleteIdentity  DeprovisionStep = "delete_identity"
)

// DeprovisionResult is the structured outcome of the deletion saga. Steps
// holds the per-step outcome for every step that was attempted; Err is the
// terminal error, nil only when every destructive step succeeded.
type DeprovisionResult struct {
	Steps map[DeprovisionStep]error
	Err   error
}

// AccountDeprovisioner deletes a user across the identity service, the
// record store and the blob store. The three systems cannot be updated in
// one transaction; the policy is maximum cleanup with explicit
// partial-failure reporting, never a silent claim of full success.
//
// Reauthentication is a hard gate: the password is checked against the
// account's own credential, and on failure no mutation is performed. Every
// later step is best-effort; a failure is recorded as the first error but
// does not stop the remaining steps. Identity deletion failure always takes
// priority in the terminal error, because it leaves a working credential
// pointing at deleted data.
type AccountDeprovisioner struct {
	identity IdentityGateway
	records  RecordStore
	blobs    BlobStore
}

// NewAccountDeprovisioner creates a new account deprovisioner
func NewAccountDeprovisioner(identity IdentityGateway, records RecordStore, blobs BlobStore) *AccountDeprovisioner {
	return &AccountDeprovisioner{identity: identity, records: records, blobs: blobs}
}

// Deprovision runs the deletion saga for one user. It only returns once
// every issued operation has completed or failed.
func (d *AccountDeprovisioner) Deprovision(ctx context.Context, userID, currentPassword string) *DeprovisionResult {
	res := &DeprovisionResult{Steps: make(map[DeprovisionStep]error)}

	// The email is resolved from the account itself, never taken from the
	// caller, so the password can only prove the credential being deleted.
	if err := d.reauthenticate(ctx, userID, currentPassword); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Account deletion aborted: reauthentication failed")
		res.Steps[StepReauthenticate] = err
		res.Err = err
		return res
	}
	res.Steps[StepReauthenticate] = nil

	var firstErr error
	record := func(step DeprovisionStep, err error) {
		res.Steps[step] = err
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Str("step", string(step)).Msg("Account deletion step failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	record(StepDeleteProfile, d.records.Delete(ctx, CollectionUsers, userID))
	record(StepDeleteAvatar, d.blobs.Delete(ctx, avatarKey(userID)))
	record(StepPurgeUserFolder, d.purgeFolder(ctx, "users/"+userID+"/"))

	idErr := d.identity.DeleteCredential(ctx, userID)
	res.Steps[StepDeleteIdentity] = idErr
	if idErr != nil {
		log.Error().Err(idErr).Str("user_id", userID).Msg("Identity deletion failed, account can still authenticate")
		res.Err = idErr
		return res
	}

	log.Info().Str("user_id", userID).Msg("Account deprovisioned")
	res.Err = firstErr
	return res
}

// reauthenticate proves the caller holds the current password of the account
// being deleted
func (d *AccountDeprovisioner) reauthenticate(ctx context.Context, userID, currentPassword string) error {
	cred, err := d.identity.Lookup(ctx, userID)
	if err != nil {
		return err
	}
	verifiedID, err := d.identity.Verify(ctx, cred.Email, currentPassword)
	if err != nil {
		return err
	}
	if verifiedID != userID {
		return apperr.Auth("verify", errors.New("credential does not match account"))
	}
	return nil
}

// purgeFolder deletes every object under prefix, recursing exactly one
// level into sub-prefixes; deeper nesting is left uncleaned. Individual
// deletes fan out and do not halt each other; completion is gated on all of
// them finishing, and the first failure is returned.
func (d *AccountDeprovisioner) purgeFolder(ctx context.Context, prefix string) error {
	items, subPrefixes, err := d.blobs.ListPrefix(ctx, prefix)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var firstErr error
	recordErr := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for _, key := range items {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			recordErr(d.blobs.Delete(ctx, key))
		}(key)
	}
	for _, sub := range subPrefixes {
		wg.Add(1)
		go func(sub string) {
			defer wg.Done()
			subItems, _, err := d.blobs.ListPrefix(ctx, sub)
			if err != nil {
				recordErr(err)
				return
			}
			var subWG sync.WaitGroup
			for _, key := range subItems {
				subWG.Add(1)
				go func(key string) {
					defer subWG.Done()
					recordErr(d.blobs.Delete(ctx, key))
				}(key)
			}
			subWG.Wait()
		}(sub)
	}
	wg.Wait()

	return firstErr
}

func avatarKey(userID string) string {
	return "avatars/" + userID + ".jpg"
}

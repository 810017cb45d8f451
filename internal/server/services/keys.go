package services

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/cryptox"
	"github.com/dmitrijs2005/familyrecipe/internal/logging"
	"github.com/dmitrijs2005/familyrecipe/internal/server/auth"
	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// KeyService owns the signing key material: it creates key pairs, hands
// out the private key for signing and the public keys for verification.
type KeyService struct {
	repomanager repomanager.RepositoryManager
	passphrase  []byte
	log         logging.Logger
	now         func() time.Time
}

// NewKeyService constructs a KeyService. With a non-empty passphrase the
// private key is sealed at rest.
func NewKeyService(m repomanager.RepositoryManager, passphrase string, log logging.Logger) *KeyService {
	s := &KeyService{
		repomanager: m,
		log:         log.With("module", "keys"),
		now:         time.Now,
	}
	if passphrase != "" {
		s.passphrase = []byte(passphrase)
	}
	return s
}

// CreateSecret generates and stores a new key pair and returns its key id.
//
// The private key lives in a single slot. Unless force is set, an existing
// private key is kept and common.ErrSecretExists returned. With force the
// slot is overwritten; earlier public keys stay published, so tokens they
// signed keep verifying until they expire.
func (s *KeyService) CreateSecret(ctx context.Context, force bool) (string, error) {
	repo := s.repomanager.Secrets()

	_, err := repo.GetPrivate(ctx)
	switch {
	case err == nil && !force:
		return "", common.ErrSecretExists
	case err == nil:
		s.log.Warn(ctx, "replacing private signing key")
	case !errors.Is(err, common.ErrorNotFound):
		return "", fmt.Errorf("failed to retrieve key: %w", err)
	}

	privatePEM, publicPEM, err := auth.GenerateKeyPair()
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	id := uuid.NewString()

	private := &models.PrivateKey{ID: id, Name: models.PrivateKeyName, CreatedAt: now, UpdatedAt: now}
	if s.passphrase != nil {
		sealed, err := cryptox.Seal([]byte(privatePEM), s.passphrase)
		if err != nil {
			return "", fmt.Errorf("seal private key: %w", err)
		}
		private.Sealed = &models.SealedSecret{Salt: sealed.Salt, Nonce: sealed.Nonce, Ciphertext: sealed.Ciphertext}
	} else {
		private.Secret = privatePEM
	}

	public := &models.PublicKey{ID: id, Name: models.PublicKeyName, Secret: publicPEM, CreatedAt: now, UpdatedAt: now}

	if force {
		err = repo.SaveKeyPair(ctx, private, public)
	} else {
		// the slot may have been filled since the check above
		err = repo.CreateKeyPair(ctx, private, public)
		if errors.Is(err, common.ErrorAlreadyExists) {
			return "", common.ErrSecretExists
		}
	}
	if err != nil {
		return "", err
	}

	s.log.Info(ctx, "signing key created", "keyId", id, "sealed", s.passphrase != nil)
	return id, nil
}

func (s *KeyService) privatePEM(k *models.PrivateKey) (string, error) {
	if k.Sealed == nil {
		return k.Secret, nil
	}
	if s.passphrase == nil {
		return "", fmt.Errorf("%w: private key is sealed but no passphrase is configured", common.ErrConfiguration)
	}
	plain, err := cryptox.Open(&cryptox.Sealed{Salt: k.Sealed.Salt, Nonce: k.Sealed.Nonce, Ciphertext: k.Sealed.Ciphertext}, s.passphrase)
	if err != nil {
		return "", fmt.Errorf("%w: cannot open private key: %v", common.ErrConfiguration, err)
	}
	defer common.WipeByteArray(plain)
	return string(plain), nil
}

// SigningKey returns the active private key and its key id. A missing key
// is common.ErrSigningKeyUnavailable.
func (s *KeyService) SigningKey(ctx context.Context) (*ecdsa.PrivateKey, string, error) {
	k, err := s.repomanager.Secrets().GetPrivate(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", fmt.Errorf("%w: no private key provisioned", common.ErrSigningKeyUnavailable)
		}
		return nil, "", fmt.Errorf("failed to retrieve key: %w", err)
	}

	pemText, err := s.privatePEM(k)
	if err != nil {
		return nil, "", err
	}
	key, err := auth.ParsePrivateKeyPEM(pemText)
	if err != nil {
		return nil, "", fmt.Errorf("%w: stored private key: %v", common.ErrSigningKeyUnavailable, err)
	}
	return key, k.ID, nil
}

// VerificationKeys returns every published public key. Records that fail to
// parse are logged and skipped.
func (s *KeyService) VerificationKeys(ctx context.Context) ([]auth.VerificationKey, error) {
	records, err := s.repomanager.Secrets().ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve key: %w", err)
	}

	keys := make([]auth.VerificationKey, 0, len(records))
	for _, r := range records {
		k, err := auth.ParsePublicKeyPEM(r.Secret)
		if err != nil {
			s.log.Warn(ctx, "skipping unparsable public key", "keyId", r.ID, "error", err)
			continue
		}
		keys = append(keys, auth.VerificationKey{ID: r.ID, Key: k})
	}
	return keys, nil
}

// JWKS publishes the verification keys as a JWK set.
func (s *KeyService) JWKS(ctx context.Context) (jwk.Set, error) {
	keys, err := s.VerificationKeys(ctx)
	if err != nil {
		return nil, err
	}
	return auth.BuildJWKS(keys)
}

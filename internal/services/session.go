package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"challengr-backend/internal/apperr"
	"challengr-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const jwtExpDays = 365

// SessionService handles signup, sign-in, profile and password management.
// Identity facts live in the identity gateway; profile facts are mirrored
// into a record-store document that may lag behind.
type SessionService struct {
	identity  IdentityGateway
	records   RecordStore
	blobs     BlobStore
	jwtSecret string
}

// NewSessionService creates a new session service
func NewSessionService(identity IdentityGateway, records RecordStore, blobs BlobStore, jwtSecret string) *SessionService {
	return &SessionService{
		identity:  identity,
		records:   records,
		blobs:     blobs,
		jwtSecret: jwtSecret,
	}
}

// SignUp creates a credential, sets the display name, mirrors the profile
// document and issues a session token. The display-name write is
// best-effort; the profile mirror may be absent briefly if this call fails
// partway, and readers fall back to identity fields.
func (s *SessionService) SignUp(ctx context.Context, email, password, firstName, lastName string) (*models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, "", apperr.Validation("email", "must not be empty")
	}
	if len(password) < 6 {
		return nil, "", apperr.Validation("password", "must be at least 6 characters")
	}
	if strings.TrimSpace(firstName) == "" {
		return nil, "", apperr.Validation("first_name", "must not be empty")
	}

	userID, err := s.identity.CreateCredential(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	if err := s.identity.SetDisplayName(ctx, userID, firstName); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to set display name")
	}

	profile := map[string]any{
		"email":     email,
		"firstName": firstName,
		"lastName":  lastName,
	}
	if err := s.records.Set(ctx, CollectionUsers, userID, profile, false); err != nil {
		return nil, "", err
	}

	token, err := s.GenerateJWT(userID)
	if err != nil {
		return nil, "", err
	}

	log.Info().Str("user_id", userID).Msg("User signed up")

	return &models.User{
		ID:          userID,
		Email:       email,
		FirstName:   firstName,
		LastName:    lastName,
		DisplayName: firstName,
		CreatedAt:   time.Now(),
	}, token, nil
}

// SignIn verifies credentials and issues a session token
func (s *SessionService) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	userID, err := s.identity.Verify(ctx, strings.TrimSpace(strings.ToLower(email)), password)
	if err != nil {
		return nil, "", err
	}
	user, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	token, err := s.GenerateJWT(userID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// CurrentUser retrieves the user's profile. A missing mirror document means
// the profile is not yet provisioned, so the identity-service fields are
// used as a fallback instead of failing.
func (s *SessionService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	doc, err := s.records.Get(ctx, CollectionUsers, userID)
	if err != nil {
		if !apperr.IsNotFound(err) {
			return nil, err
		}
		cred, lookupErr := s.identity.Lookup(ctx, userID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return &models.User{
			ID:          cred.ID,
			Email:       cred.Email,
			FirstName:   cred.DisplayName,
			DisplayName: cred.DisplayName,
			CreatedAt:   cred.CreatedAt,
		}, nil
	}

	first := docString(doc.Data, "firstName")
	return &models.User{
		ID:          doc.ID,
		Email:       docString(doc.Data, "email"),
		FirstName:   first,
		LastName:    docString(doc.Data, "lastName"),
		DisplayName: first,
		AvatarURL:   docString(doc.Data, "photoURL"),
		CreatedAt:   doc.CreatedAt,
	}, nil
}

// UpdateProfile updates the display name and merges the changed fields into
// the profile document. The identity-side display-name write is best-effort.
func (s *SessionService) UpdateProfile(ctx context.Context, userID, firstName, lastName, avatarURL string) error {
	if strings.TrimSpace(firstName) == "" {
		return apperr.Validation("first_name", "must not be empty")
	}

	if err := s.identity.SetDisplayName(ctx, userID, firstName); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to update display name")
	}

	fields := map[string]any{
		"firstName": firstName,
		"lastName":  lastName,
	}
	if avatarURL != "" {
		fields["photoURL"] = avatarURL
	}
	return s.records.Set(ctx, CollectionUsers, userID, fields, true)
}

// UploadAvatar stores the avatar image and merges its URL into the profile
func (s *SessionService) UploadAvatar(ctx context.Context, userID string, image []byte, contentType string) (string, error) {
	if len(image) == 0 {
		return "", apperr.Validation("image", "must not be empty")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := avatarKey(userID)
	if err := s.blobs.Upload(ctx, key, image, contentType, map[string]string{"user_id": userID}); err != nil {
		return "", err
	}
	url := s.blobs.ResolveURL(key)

	if err := s.records.Set(ctx, CollectionUsers, userID, map[string]any{"photoURL": url}, true); err != nil {
		return "", err
	}
	return url, nil
}

// ChangePassword reauthenticates the session's own account with the current
// password before updating to the new one. The email is resolved from the
// account, not taken from the caller.
func (s *SessionService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return apperr.Validation("new_password", "must be at least 6 characters")
	}
	cred, err := s.identity.Lookup(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.identity.Verify(ctx, cred.Email, currentPassword); err != nil {
		return err
	}
	return s.identity.UpdatePassword(ctx, userID, newPassword)
}

// GenerateJWT generates a session token for a user
func (s *SessionService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a session token and returns the user ID
func (s *SessionService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

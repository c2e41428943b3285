package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

const roleClaim = "role"

// FirebaseProvider verifies Firebase ID tokens and stores roles as custom claims.
type FirebaseProvider struct {
	client *auth.Client
}

// NewFirebaseProvider initializes the Admin SDK from a service account file,
// or from Application Default Credentials when credentialsFile is empty.
func NewFirebaseProvider(ctx context.Context, projectID, credentialsFile string) (*FirebaseProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth client: %w", err)
	}

	return &FirebaseProvider{client: client}, nil
}

func (p *FirebaseProvider) Verify(ctx context.Context, idToken string) (*Claims, error) {
	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims := &Claims{Subject: token.UID}
	if role, ok := token.Claims[roleClaim].(string); ok {
		claims.Role = role
	}
	return claims, nil
}

func (p *FirebaseProvider) GetRole(ctx context.Context, externalID string) (string, error) {
	record, err := p.client.GetUser(ctx, externalID)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", ErrUnknownUser
		}
		return "", fmt.Errorf("failed to read custom claims: %w", err)
	}

	role, _ := record.CustomClaims[roleClaim].(string)
	return role, nil
}

// SetRole merges the role into the user's existing custom claims.
func (p *FirebaseProvider) SetRole(ctx context.Context, externalID, role string) error {
	record, err := p.client.GetUser(ctx, externalID)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return ErrUnknownUser
		}
		return fmt.Errorf("failed to read custom claims: %w", err)
	}

	claims := make(map[string]interface{}, len(record.CustomClaims)+1)
	for k, v := range record.CustomClaims {
		claims[k] = v
	}
	claims[roleClaim] = role

	if err := p.client.SetCustomUserClaims(ctx, externalID, claims); err != nil {
		return fmt.Errorf("failed to set custom claims: %w", err)
	}
	return nil
}

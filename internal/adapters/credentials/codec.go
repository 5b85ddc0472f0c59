// Package credentials holds the on-disk format shared by the credential
// store backends.
package credentials

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/botctl/internal/domain"
	toml "github.com/pelletier/go-toml/v2"
)

const currentSchemaVersion = 1

type credentialFile struct {
	Version      int       `toml:"version"`
	UserID       string    `toml:"user_id"`
	RefreshToken string    `toml:"refresh_token"`
	Anonymous    bool      `toml:"anonymous"`
	SavedAt      time.Time `toml:"saved_at"`
}

func Encode(credential domain.Credential) ([]byte, error) {
	data, err := toml.Marshal(credentialFile{
		Version:      currentSchemaVersion,
		UserID:       string(credential.UserID),
		RefreshToken: credential.RefreshToken,
		Anonymous:    credential.Anonymous,
		SavedAt:      credential.SavedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode credential: %w", err)
	}
	return data, nil
}

func Decode(data []byte) (domain.Credential, error) {
	var file credentialFile
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&file); err != nil {
		return domain.Credential{}, fmt.Errorf("decode credential: %w", err)
	}
	if file.Version > currentSchemaVersion {
		return domain.Credential{}, fmt.Errorf("unsupported credential schema version %d (current %d)", file.Version, currentSchemaVersion)
	}
	if strings.TrimSpace(file.RefreshToken) == "" {
		return domain.Credential{}, fmt.Errorf("decode credential: refresh token is empty")
	}

	return domain.Credential{
		UserID:       domain.UserID(file.UserID),
		RefreshToken: file.RefreshToken,
		Anonymous:    file.Anonymous,
		SavedAt:      file.SavedAt,
	}, nil
}

package core

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed seed/users.yaml
var defaultSeedUsers []byte

// SeedUser is one entry of the credential seed file.
type SeedUser struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

type seedFile struct {
	Users []SeedUser `yaml:"users"`
}

// LoadSeedUsers reads the seed from path, or the embedded default when path is empty.
func LoadSeedUsers(path string) ([]SeedUser, error) {
	data := defaultSeedUsers
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", path, err)
		}
		data = b
	}
	return ParseSeedUsers(data)
}

// ParseSeedUsers validates usernames are present and unique and each entry carries a secret.
func ParseSeedUsers(data []byte) ([]SeedUser, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Users))
	for i, u := range f.Users {
		name := strings.TrimSpace(u.Username)
		if name == "" {
			return nil, fmt.Errorf("seed entry %d: username is required", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("seed entry %d: duplicate username %q", i, name)
		}
		if u.Password == "" && u.PasswordHash == "" {
			return nil, fmt.Errorf("seed entry %d (%s): password or password_hash is required", i, name)
		}
		seen[name] = struct{}{}
		f.Users[i].Username = name
	}
	return f.Users, nil
}

// SeedUsers creates every seed user that does not exist yet.
// It is idempotent: existing usernames are left untouched.
func SeedUsers(ctx context.Context, repo UserRepository, users []SeedUser) (int, error) {
	created := 0
	for _, u := range users {
		_, err := repo.FindByUsername(ctx, u.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrUserNotFound) {
			return created, err
		}

		hash := u.PasswordHash
		if hash == "" {
			b, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return created, err
			}
			hash = string(b)
		}
		if _, err := repo.Create(ctx, u.Username, hash); err != nil {
			if errors.Is(err, ErrUserExists) {
				continue
			}
			return created, err
		}
		created++
		log.Printf("seeded user username=%s", u.Username)
	}
	return created, nil
}

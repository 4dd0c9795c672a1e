package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var errMalformedHash = errors.New("malformed argon2id hash")

type argon2Config struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen int
	keyLen  uint32
}

var defaultArgon2 = argon2Config{memory: 64 * 1024, time: 3, threads: 1, saltLen: 16, keyLen: 32}

// hash encodes as $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>.
func (c argon2Config) hash(raw string) (string, error) {
	salt := make([]byte, c.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(raw), salt, c.time, c.memory, c.threads, c.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, c.memory, c.time, c.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func parseArgon2id(encoded string) (argon2Config, []byte, []byte, error) {
	var cfg argon2Config
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[1] != "argon2id" {
		return cfg, nil, nil, errMalformedHash
	}
	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return cfg, nil, nil, errMalformedHash
	}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &cfg.memory, &cfg.time, &cfg.threads); err != nil {
		return cfg, nil, nil, errMalformedHash
	}
	if cfg.time == 0 || cfg.threads == 0 {
		return cfg, nil, nil, errMalformedHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		return cfg, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return cfg, nil, nil, errMalformedHash
	}
	cfg.saltLen = len(salt)
	cfg.keyLen = uint32(len(key))
	return cfg, salt, key, nil
}

func verifyPassword(raw, hashed string) bool {
	if !strings.HasPrefix(hashed, "$argon2") {
		return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(raw)) == nil
	}
	cfg, salt, want, err := parseArgon2id(hashed)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(raw), salt, cfg.time, cfg.memory, cfg.threads, cfg.keyLen)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// RandomPassword returns a url-safe placeholder credential.
func RandomPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

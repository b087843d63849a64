// Package pgp wraps OpenPGP key generation and message encryption for the
// chat layer. Keys are curve25519 and everything crosses the wire armored,
// so content stays text-safe in JSON bodies and database rows.
package pgp

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// KeyPair holds one user's armored keys. The private key never leaves the
// client that generated it; the public key is uploaded for others to
// encrypt to.
type KeyPair struct {
	PrivateKey string
	PublicKey  string
}

// GenerateKeyPair creates a curve25519 keypair bound to the user's display
// name and email.
func GenerateKeyPair(name, email string) (*KeyPair, error) {
	cfg := &packet.Config{
		Algorithm: packet.PubKeyAlgoEdDSA,
		Curve:     packet.Curve25519,
	}
	entity, err := openpgp.NewEntity(name, "", email, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate entity: %w", err)
	}

	var priv bytes.Buffer
	pw, err := armor.Encode(&priv, openpgp.PrivateKeyType, nil)
	if err != nil {
		return nil, err
	}
	if err := entity.SerializePrivate(pw, nil); err != nil {
		return nil, fmt.Errorf("serialize private key: %w", err)
	}
	if err := pw.Close(); err != nil {
		return nil, err
	}

	var pub bytes.Buffer
	w, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
	if err != nil {
		return nil, err
	}
	if err := entity.Serialize(w); err != nil {
		return nil, fmt.Errorf("serialize public key: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return &KeyPair{PrivateKey: priv.String(), PublicKey: pub.String()}, nil
}

// ReadKey parses an armored key (public or private) into a keyring.
func ReadKey(armored string) (openpgp.EntityList, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armored))
	if err != nil {
		return nil, fmt.Errorf("read armored key: %w", err)
	}
	return keyring, nil
}

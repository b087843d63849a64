package pgp

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// MessageHeader identifies an armored encrypted envelope. Content without
// it is treated as legacy plain text.
const MessageHeader = "-----BEGIN PGP MESSAGE-----"

const messageType = "PGP MESSAGE"

// Encode encrypts plaintext to every given armored public key and returns
// the armored envelope. Encryption failure is an error: a message must
// never silently go out as plaintext when encryption was expected.
func Encode(plaintext string, recipientKeys ...string) (string, error) {
	if len(recipientKeys) == 0 {
		return "", fmt.Errorf("no recipient keys")
	}
	var recipients openpgp.EntityList
	for _, armored := range recipientKeys {
		keyring, err := ReadKey(armored)
		if err != nil {
			return "", err
		}
		recipients = append(recipients, keyring...)
	}

	var buf bytes.Buffer
	aw, err := armor.Encode(&buf, messageType, nil)
	if err != nil {
		return "", err
	}
	pt, err := openpgp.Encrypt(aw, recipients, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	if _, err := io.WriteString(pt, plaintext); err != nil {
		return "", err
	}
	if err := pt.Close(); err != nil {
		return "", err
	}
	if err := aw.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// IsEncrypted reports whether content carries the armored envelope header.
func IsEncrypted(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), MessageHeader)
}

// Decode decrypts an armored envelope with the given private keyring. Input
// that is not an envelope is returned unchanged (legacy plaintext rows),
// and so is an envelope that fails to decrypt: the UI renders ciphertext
// rather than an error state, so a bad key never blocks the conversation
// view.
func Decode(content string, keyring openpgp.EntityList) string {
	if !IsEncrypted(content) || len(keyring) == 0 {
		return content
	}
	block, err := armor.Decode(strings.NewReader(content))
	if err != nil {
		return content
	}
	md, err := openpgp.ReadMessage(block.Body, keyring, nil, nil)
	if err != nil {
		return content
	}
	data, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return content
	}
	return string(data)
}

package router

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestSignatureVerification(t *testing.T) {
	// generate a key pair
	k, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	data := []byte(`{"recipient":"0x0","amount":"100"}`)

	sign := func(t *testing.T, body signedBody) string {
		t.Helper()

		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}

		sig, err := crypto.Sign(accounts.TextHash(crypto.Keccak256(b)), k)
		if err != nil {
			t.Fatal(err)
		}

		return hexutil.Encode(sig)
	}

	addr := crypto.PubkeyToAddress(k.PublicKey)

	t.Run("valid", func(t *testing.T) {
		body := signedBody{
			Data:     data,
			Encoding: BodyEncodingBase64,
			Expiry:   time.Now().Add(time.Second * 5).UTC().Unix(),
			Version:  3,
		}

		sig := sign(t, body)

		if !verifySignature(body, addr, sig) {
			t.Errorf("verifySignature(%v, %s, %s) = false, want true", body, addr, sig)
		}
	})

	t.Run("expired", func(t *testing.T) {
		body := signedBody{
			Data:     data,
			Encoding: BodyEncodingBase64,
			Expiry:   time.Now().Add(-time.Second * 5).UTC().Unix(),
			Version:  3,
		}

		sig := sign(t, body)

		if verifySignature(body, addr, sig) {
			t.Error("expected expired signature to be rejected")
		}
	})

	t.Run("wrong address", func(t *testing.T) {
		body := signedBody{
			Data:     data,
			Encoding: BodyEncodingBase64,
			Expiry:   time.Now().Add(time.Second * 5).UTC().Unix(),
			Version:  3,
		}

		sig := sign(t, body)

		other, err := crypto.GenerateKey()
		if err != nil {
			t.Fatal(err)
		}

		if verifySignature(body, crypto.PubkeyToAddress(other.PublicKey), sig) {
			t.Error("expected signature from a different key to be rejected")
		}
	})

	t.Run("tampered data", func(t *testing.T) {
		body := signedBody{
			Data:     data,
			Encoding: BodyEncodingBase64,
			Expiry:   time.Now().Add(time.Second * 5).UTC().Unix(),
			Version:  3,
		}

		sig := sign(t, body)

		body.Data = []byte(`{"recipient":"0x0","amount":"999"}`)

		if verifySignature(body, addr, sig) {
			t.Error("expected tampered body to be rejected")
		}
	})
}

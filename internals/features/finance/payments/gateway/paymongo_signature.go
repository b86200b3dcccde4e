package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// VerifyWebhookSignature memverifikasi header "t=<ts>,te=<sig>,li=<sig>".
// Fail closed: header/secret/timestamp/signature kosong → false. Tidak pernah panic.
func (p *PayMongo) VerifyWebhookSignature(rawBody []byte, header string) (ok bool) {
	return verifyPayMongoSignature(p.cfg.WebhookSecret, p.cfg.LiveMode, rawBody, header)
}

func verifyPayMongoSignature(secret string, live bool, rawBody []byte, header string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if header == "" || secret == "" {
		return false
	}

	var ts, liveSig, testSig string
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "li":
			liveSig = v
		case "te":
			testSig = v
		}
	}

	expected := testSig
	if live {
		expected = liveSig
	}
	if ts == "" || expected == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte{'.'})
	mac.Write(rawBody)
	computed := make([]byte, hex.EncodedLen(sha256.Size))
	hex.Encode(computed, mac.Sum(nil))

	return hmac.Equal(computed, []byte(expected))
}

// SignPayMongoPayload menghasilkan header yang valid (dipakai test & tooling replay).
func SignPayMongoPayload(secret string, live bool, ts int64, rawBody []byte) string {
	t := strconv.FormatInt(ts, 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(t + "."))
	mac.Write(rawBody)
	sig := hex.EncodeToString(mac.Sum(nil))
	if live {
		return "t=" + t + ",te=,li=" + sig
	}
	return "t=" + t + ",te=" + sig + ",li="
}

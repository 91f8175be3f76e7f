package security

import (
	"crypto/sha256"
	"crypto/sha512"
)

// hardenedHash is the revision 6 password hash (ISO 32000-2, algorithm 2.B):
// an initial SHA-256 followed by at least 64 rounds of AES-128-CBC over a
// repeated password/hash/salt block, with the digest function for the next
// round chosen by the last ciphertext byte modulo 3.
func hardenedHash(pwd, salt, extra []byte) []byte {
	data := make([]byte, 0, len(pwd)+len(salt)+len(extra))
	data = append(data, pwd...)
	data = append(data, salt...)
	data = append(data, extra...)
	hash := sha256.Sum256(data)
	h := hash[:]

	for i := 0; ; i++ {
		block := make([]byte, 0, 64*(len(pwd)+len(h)+len(extra)))
		for j := 0; j < 64; j++ {
			block = append(block, pwd...)
			block = append(block, h...)
			block = append(block, extra...)
		}
		key := h[:16]
		iv := h[16:32]
		enc, err := aesCBCWithIV(key, iv, block[:len(block)/16*16], true)
		if err != nil {
			return h[:32]
		}
		switch sumBytes(enc[:16]) % 3 {
		case 0:
			sum := sha256.Sum256(enc)
			h = sum[:]
		case 1:
			sum := sha512.Sum384(enc)
			h = sum[:]
		default:
			sum := sha512.Sum512(enc)
			h = sum[:]
		}
		if i >= 63 && int(enc[len(enc)-1]) <= i-31 {
			break
		}
	}
	return h[:32]
}

func sumBytes(b []byte) int {
	total := 0
	for _, c := range b {
		total += int(c)
	}
	return total
}

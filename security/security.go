// Package security implements the writer side of the PDF Standard security
// handler. A Handler transforms strings and stream bodies at the moment an
// indirect object is serialized and owns the document's Encrypt dictionary.
package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"encoding/binary"
	"fmt"

	"github.com/wudi/pdfstream/objects"
)

// Permissions lists the user-access bits of the Standard handler.
type Permissions struct {
	Print             bool
	Modify            bool
	Copy              bool
	ModifyAnnotations bool
	FillForms         bool
	ExtractAccessible bool
	Assemble          bool
	PrintHighQuality  bool
}

// Options configures document encryption. At least one password should be
// set; an empty owner password falls back to the user password.
type Options struct {
	UserPassword  string
	OwnerPassword string
	Permissions   Permissions
	// AES256 selects the revision 6 handler (AES-256, hardened key
	// derivation) regardless of the document version.
	AES256 bool
}

// Handler encrypts object payloads and produces the Encrypt dictionary.
type Handler struct {
	v, r   int
	keyLen int // bytes
	key    []byte
	useAES bool
	dict   objects.Dict
}

type cryptAlgo int

const (
	algoRC4 cryptAlgo = iota
	algoAES
)

// NewHandler builds a Handler for the given document version and file ID.
// The file ID must be computed before the handler: it is key material.
//
// Revision selection mirrors the original producer: version 1.3 uses R2
// (40-bit RC4), 1.4 and 1.5 use R3 (128-bit RC4), 1.6 and 1.7 use R4
// (AES-128), and Options.AES256 forces R6 (AES-256).
func NewHandler(opts Options, pdfVersion string, fileID []byte) (*Handler, error) {
	if opts.UserPassword == "" && opts.OwnerPassword == "" {
		return nil, fmt.Errorf("security: at least one password is required")
	}
	ownerPwd := opts.OwnerPassword
	if ownerPwd == "" {
		ownerPwd = opts.UserPassword
	}

	r := 2
	switch {
	case opts.AES256:
		r = 6
	case pdfVersion == "1.6" || pdfVersion == "1.7":
		r = 4
	case pdfVersion == "1.4" || pdfVersion == "1.5":
		r = 3
	}

	h := &Handler{r: r}
	var err error
	switch r {
	case 2:
		err = h.buildR2([]byte(opts.UserPassword), []byte(ownerPwd), opts.Permissions, fileID)
	case 3, 4:
		err = h.buildR3R4([]byte(opts.UserPassword), []byte(ownerPwd), opts.Permissions, fileID)
	default:
		err = h.buildR6([]byte(opts.UserPassword), []byte(ownerPwd), opts.Permissions)
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Dict returns the Encrypt dictionary payload. String-valued entries are
// objects.String so they bypass the very filter this handler implements.
func (h *Handler) Dict() objects.Dict { return h.dict }

// Revision reports the Standard handler revision in use.
func (h *Handler) Revision() int { return h.r }

// EncryptString transforms a text string payload belonging to object
// (objNum, gen).
func (h *Handler) EncryptString(objNum, gen int, data []byte) []byte {
	return h.crypt(objNum, gen, data)
}

// EncryptStream transforms a stream body belonging to object (objNum, gen).
func (h *Handler) EncryptStream(objNum, gen int, data []byte) []byte {
	return h.crypt(objNum, gen, data)
}

func (h *Handler) crypt(objNum, gen int, data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	key := objectKey(h.key, objNum, gen, h.r, h.useAES)
	if h.useAES {
		out, err := aesEncrypt(key, data)
		if err != nil {
			// Key sizes are fixed at construction; failure here is a defect.
			panic(fmt.Sprintf("security: aes encrypt: %v", err))
		}
		return out
	}
	return rc4Apply(key, data)
}

func (h *Handler) buildR2(userPwd, ownerPwd []byte, perms Permissions, fileID []byte) error {
	h.v, h.keyLen = 1, 5
	oVal := computeOwnerEntry(userPwd, ownerPwd, 2, h.keyLen)
	pVal := permissionsValue(perms, 2)
	h.key = deriveKey(userPwd, oVal, pVal, fileID, h.keyLen, 2)
	uVal := rc4Apply(h.key, passwordPadding)

	h.dict = objects.Dict{
		"Filter": objects.Name("Standard"),
		"V":      h.v,
		"R":      h.r,
		"Length": h.keyLen * 8,
		"O":      objects.String(oVal),
		"U":      objects.String(uVal),
		"P":      int(pVal),
	}
	return nil
}

func (h *Handler) buildR3R4(userPwd, ownerPwd []byte, perms Permissions, fileID []byte) error {
	h.keyLen = 16
	if h.r == 4 {
		h.v = 4
		h.useAES = true
	} else {
		h.v = 2
	}
	oVal := computeOwnerEntry(userPwd, ownerPwd, h.r, h.keyLen)
	pVal := permissionsValue(perms, h.r)
	h.key = deriveKey(userPwd, oVal, pVal, fileID, h.keyLen, h.r)

	// U entry for R>=3: 20 iterations of RC4 over md5(padding || fileID),
	// padded to 32 bytes.
	sum := md5.Sum(append(append([]byte{}, passwordPadding...), fileID...))
	uVal := iterateRC4(h.key, sum[:], 0, 20)
	uVal = append(uVal, make([]byte, 16)...)

	h.dict = objects.Dict{
		"Filter": objects.Name("Standard"),
		"V":      h.v,
		"R":      h.r,
		"Length": h.keyLen * 8,
		"O":      objects.String(oVal),
		"U":      objects.String(uVal),
		"P":      int(pVal),
	}
	if h.r == 4 {
		h.dict["CF"] = objects.Dict{
			"StdCF": objects.Dict{
				"AuthEvent": objects.Name("DocOpen"),
				"CFM":       objects.Name("AESV2"),
				"Length":    16,
			},
		}
		h.dict["StmF"] = objects.Name("StdCF")
		h.dict["StrF"] = objects.Name("StdCF")
	}
	return nil
}

func (h *Handler) buildR6(userPwd, ownerPwd []byte, perms Permissions) error {
	h.v, h.keyLen, h.useAES = 5, 32, true
	userPwd = truncatePasswordR6(userPwd)
	ownerPwd = truncatePasswordR6(ownerPwd)

	h.key = make([]byte, 32)
	if _, err := rand.Read(h.key); err != nil {
		return fmt.Errorf("security: generate file key: %w", err)
	}

	salts := make([]byte, 16)
	if _, err := rand.Read(salts); err != nil {
		return fmt.Errorf("security: generate salts: %w", err)
	}
	uValidation, uKey := salts[0:8], salts[8:16]

	uVal := append(append(rev6Hash(userPwd, uValidation, nil), uValidation...), uKey...)
	ueKey := rev6Hash(userPwd, uKey, nil)
	ueVal, err := aesCBCNoPad(ueKey, h.key, true)
	if err != nil {
		return err
	}

	oSalts := make([]byte, 16)
	if _, err := rand.Read(oSalts); err != nil {
		return fmt.Errorf("security: generate salts: %w", err)
	}
	oValidation, oKey := oSalts[0:8], oSalts[8:16]

	oVal := append(append(rev6Hash(ownerPwd, oValidation, uVal), oValidation...), oKey...)
	oeKey := rev6Hash(ownerPwd, oKey, uVal)
	oeVal, err := aesCBCNoPad(oeKey, h.key, true)
	if err != nil {
		return err
	}

	pVal := permissionsValue(perms, 6)
	permsVal, err := encryptPerms(h.key, pVal)
	if err != nil {
		return err
	}

	h.dict = objects.Dict{
		"Filter": objects.Name("Standard"),
		"V":      5,
		"R":      6,
		"Length": 256,
		"CF": objects.Dict{
			"StdCF": objects.Dict{
				"AuthEvent": objects.Name("DocOpen"),
				"CFM":       objects.Name("AESV3"),
				"Length":    32,
			},
		},
		"StmF":  objects.Name("StdCF"),
		"StrF":  objects.Name("StdCF"),
		"O":     objects.String(oVal),
		"OE":    objects.String(oeVal),
		"U":     objects.String(uVal),
		"UE":    objects.String(ueVal),
		"P":     int(pVal),
		"Perms": objects.String(permsVal),
	}
	return nil
}

// computeOwnerEntry derives the O entry: the padded user password encrypted
// under a key taken from the owner password digest.
func computeOwnerEntry(userPwd, ownerPwd []byte, r, keyLen int) []byte {
	digest := md5.Sum(padPassword(ownerPwd))
	key := digest[:]
	if r >= 3 {
		for i := 0; i < 50; i++ {
			sum := md5.Sum(key)
			key = sum[:]
		}
	}
	key = key[:keyLen]
	if r < 3 {
		return rc4Apply(key, padPassword(userPwd))
	}
	return iterateRC4(key, padPassword(userPwd), 0, 20)
}

// iterateRC4 applies RC4 rounds with the key XORed by the round counter,
// starting at round `from` (inclusive) for `count` rounds.
func iterateRC4(key, data []byte, from, count int) []byte {
	out := append([]byte(nil), data...)
	for i := from; i < from+count; i++ {
		round := make([]byte, len(key))
		for j := range key {
			round[j] = key[j] ^ byte(i)
		}
		out = rc4Apply(round, out)
	}
	return out
}

func deriveKey(pwd, owner []byte, pVal int32, fileID []byte, keyLen, r int) []byte {
	data := make([]byte, 0, 32+len(owner)+4+len(fileID))
	data = append(data, padPassword(pwd)...)
	data = append(data, owner...)
	var pBuf [4]byte
	binary.LittleEndian.PutUint32(pBuf[:], uint32(pVal))
	data = append(data, pBuf[:]...)
	data = append(data, fileID...)

	sum := md5.Sum(data)
	key := sum[:]
	if r >= 3 {
		for i := 0; i < 50; i++ {
			sum = md5.Sum(key[:keyLen])
			key = sum[:]
		}
	}
	return key[:keyLen]
}

// objectKey derives the per-object key. Revisions 5 and later use the file
// key directly.
func objectKey(fileKey []byte, objNum, gen, r int, useAES bool) []byte {
	if r >= 5 {
		return fileKey
	}
	key := append([]byte{}, fileKey...)
	key = append(key, byte(objNum), byte(objNum>>8), byte(objNum>>16))
	key = append(key, byte(gen), byte(gen>>8))
	if useAES {
		key = append(key, 0x73, 0x41, 0x6C, 0x54) // "sAlT"
	}
	hashLen := len(fileKey) + 5
	if hashLen > 16 {
		hashLen = 16
	}
	hash := md5.Sum(key)
	return hash[:hashLen]
}

func permissionsValue(p Permissions, r int) int32 {
	val := int32(-4) // bits 1-2 zero, all others set
	if r >= 3 {
		if !p.FillForms {
			val &^= 1 << 8
		}
		if !p.ExtractAccessible {
			val &^= 1 << 9
		}
		if !p.Assemble {
			val &^= 1 << 10
		}
		if !p.PrintHighQuality {
			val &^= 1 << 11
		}
	}
	if !p.Print {
		val &^= 1 << 2
	}
	if !p.Modify {
		val &^= 1 << 3
	}
	if !p.Copy {
		val &^= 1 << 4
	}
	if !p.ModifyAnnotations {
		val &^= 1 << 5
	}
	return val
}

var passwordPadding = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

func padPassword(pwd []byte) []byte {
	padded := make([]byte, 32)
	n := copy(padded, pwd)
	copy(padded[n:], passwordPadding)
	return padded
}

func truncatePasswordR6(pwd []byte) []byte {
	if len(pwd) > 127 {
		return pwd[:127]
	}
	return pwd
}

func rc4Apply(key, data []byte) []byte {
	c, err := rc4.NewCipher(key)
	if err != nil {
		panic(fmt.Sprintf("security: rc4 key: %v", err))
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}

// aesEncrypt performs CBC encryption with a random IV prefix and block
// padding, the form PDF stream and string encryption requires.
func aesEncrypt(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	padLen := aes.BlockSize - len(data)%aes.BlockSize
	if padLen == 0 {
		padLen = aes.BlockSize
	}
	plain := append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(padLen)}, padLen)...)
	out := make([]byte, aes.BlockSize+len(plain))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], plain)
	return out, nil
}

// aesCBCNoPad runs AES-CBC with a zero IV and no padding; inputs must be a
// whole number of blocks. Used for the UE/OE entries and the rev 6 hash.
func aesCBCNoPad(key, data []byte, encrypt bool) ([]byte, error) {
	return aesCBCWithIV(key, make([]byte, aes.BlockSize), data, encrypt)
}

func aesCBCWithIV(key, iv, data []byte, encrypt bool) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("security: data not block aligned")
	}
	out := make([]byte, len(data))
	if encrypt {
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, data)
	} else {
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	}
	return out, nil
}

// rev6Hash implements the iterative hash used by revision 6 key derivation.
func rev6Hash(pwd, salt, extra []byte) []byte {
	return hardenedHash(pwd, salt, extra)
}

func encryptPerms(fileKey []byte, p int32) ([]byte, error) {
	block, err := aes.NewCipher(fileKey)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, 16)
	binary.LittleEndian.PutUint32(plain[0:4], uint32(p))
	plain[4], plain[5], plain[6], plain[7] = 0xFF, 0xFF, 0xFF, 0xFF
	plain[8] = 'T' // metadata encrypted
	plain[9], plain[10], plain[11] = 'a', 'd', 'b'
	if _, err := rand.Read(plain[12:16]); err != nil {
		return nil, err
	}
	out := make([]byte, 16)
	block.Encrypt(out, plain)
	return out, nil
}

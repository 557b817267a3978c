package softcrypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/dchest/cmac"

	"github.com/crtlabs/sks/mechanisms"
	"github.com/crtlabs/sks/objects"
)

// Operation is one in-flight multi-part processing operation, created at
// Init and consumed at Final. Digests and MACs stream through a hash; CTR
// streams through a cipher; block and AEAD modes buffer and process on
// Final.
type Operation struct {
	function  mechanisms.ProcessingFunction
	mechanism objects.MechanismType
	parameter []byte

	hasher hash.Hash
	stream cipher.Stream
	block  cipher.Block
	buffer bytes.Buffer
	done   bool
}

// NewOperation prepares an operation for the function under the mechanism.
// keyValue is nil for keyless mechanisms (digests).
func NewOperation(function mechanisms.ProcessingFunction, mechanism *mechanisms.Mechanism, keyValue []byte) (*Operation, error) {
	op := &Operation{
		function:  function,
		mechanism: mechanism.Type,
		parameter: append([]byte(nil), mechanism.Parameter...),
	}
	switch mechanism.Type {
	case objects.CKM_SHA_1:
		op.hasher = sha1.New()
	case objects.CKM_SHA256:
		op.hasher = sha256.New()
	case objects.CKM_SHA384:
		op.hasher = sha512.New384()
	case objects.CKM_SHA512:
		op.hasher = sha512.New()
	case objects.CKM_SHA_1_HMAC:
		op.hasher = hmac.New(sha1.New, keyValue)
	case objects.CKM_SHA256_HMAC:
		op.hasher = hmac.New(sha256.New, keyValue)
	case objects.CKM_SHA384_HMAC:
		op.hasher = hmac.New(sha512.New384, keyValue)
	case objects.CKM_SHA512_HMAC:
		op.hasher = hmac.New(sha512.New, keyValue)
	case objects.CKM_AES_CMAC:
		block, err := newAESCipher(keyValue)
		if err != nil {
			return nil, err
		}
		mac, err := cmac.New(block)
		if err != nil {
			return nil, objects.NewError("NewOperation", "mac setup failed: "+err.Error(), objects.CKR_DEVICE_ERROR)
		}
		op.hasher = mac
	case objects.CKM_AES_CTR:
		block, err := newAESCipher(keyValue)
		if err != nil {
			return nil, err
		}
		if len(mechanism.Parameter) != aes.BlockSize {
			return nil, objects.NewError("NewOperation", "counter block must be one cipher block", objects.CKR_MECHANISM_PARAM_INVALID)
		}
		op.stream = cipher.NewCTR(block, mechanism.Parameter)
	case objects.CKM_AES_ECB, objects.CKM_AES_CBC, objects.CKM_AES_CBC_PAD, objects.CKM_AES_GCM:
		block, err := newAESCipher(keyValue)
		if err != nil {
			return nil, err
		}
		op.block = block
	default:
		return nil, objects.NewError("NewOperation", "mechanism has no software processing", objects.CKR_MECHANISM_INVALID)
	}
	return op, nil
}

// Function returns the processing function the operation serves.
func (op *Operation) Function() mechanisms.ProcessingFunction {
	return op.function
}

// Update feeds one part of the input. Streaming mechanisms return output
// incrementally; buffering mechanisms return nil until Final.
func (op *Operation) Update(data []byte) ([]byte, error) {
	if op.done {
		return nil, objects.NewError("Operation.Update", "operation already finalized", objects.CKR_OPERATION_NOT_INITIALIZED)
	}
	switch {
	case op.hasher != nil:
		op.hasher.Write(data)
		return nil, nil
	case op.stream != nil:
		out := make([]byte, len(data))
		op.stream.XORKeyStream(out, data)
		return out, nil
	default:
		op.buffer.Write(data)
		return nil, nil
	}
}

// Final consumes the last part (may be nil) and returns the operation's
// result: the digest or MAC, or the remaining cipher output.
func (op *Operation) Final(data []byte) ([]byte, error) {
	if op.done {
		return nil, objects.NewError("Operation.Final", "operation already finalized", objects.CKR_OPERATION_NOT_INITIALIZED)
	}
	op.done = true
	switch {
	case op.hasher != nil:
		op.hasher.Write(data)
		return op.hasher.Sum(nil), nil
	case op.stream != nil:
		out := make([]byte, len(data))
		op.stream.XORKeyStream(out, data)
		return out, nil
	default:
		op.buffer.Write(data)
		return op.finishBlock(op.buffer.Bytes())
	}
}

// VerifyFinal consumes the last part and compares the computed MAC or
// digest against the caller's signature in constant time.
func (op *Operation) VerifyFinal(data, signature []byte) error {
	if op.hasher == nil {
		return objects.NewError("Operation.VerifyFinal", "operation does not produce a signature", objects.CKR_OPERATION_NOT_INITIALIZED)
	}
	computed, err := op.Final(data)
	if err != nil {
		return err
	}
	if !hmac.Equal(computed, signature) {
		return objects.NewError("Operation.VerifyFinal", "signature mismatch", objects.CKR_SIGNATURE_INVALID)
	}
	return nil
}

func (op *Operation) finishBlock(input []byte) ([]byte, error) {
	encrypting := op.function == mechanisms.Encrypt
	switch op.mechanism {
	case objects.CKM_AES_ECB:
		return op.runECB(input, encrypting)
	case objects.CKM_AES_CBC:
		return op.runCBC(input, encrypting, false)
	case objects.CKM_AES_CBC_PAD:
		return op.runCBC(input, encrypting, true)
	case objects.CKM_AES_GCM:
		return op.runGCM(input, encrypting)
	}
	return nil, objects.NewError("Operation.Final", "mechanism has no software processing", objects.CKR_MECHANISM_INVALID)
}

func (op *Operation) runECB(input []byte, encrypting bool) ([]byte, error) {
	if len(input)%aes.BlockSize != 0 {
		return nil, objects.NewError("Operation.Final", "input is not block aligned", objects.CKR_ARGUMENTS_BAD)
	}
	out := make([]byte, len(input))
	for i := 0; i < len(input); i += aes.BlockSize {
		if encrypting {
			op.block.Encrypt(out[i:i+aes.BlockSize], input[i:i+aes.BlockSize])
		} else {
			op.block.Decrypt(out[i:i+aes.BlockSize], input[i:i+aes.BlockSize])
		}
	}
	return out, nil
}

func (op *Operation) runCBC(input []byte, encrypting, padded bool) ([]byte, error) {
	if len(op.parameter) != aes.BlockSize {
		return nil, objects.NewError("Operation.Final", "iv must be one cipher block", objects.CKR_MECHANISM_PARAM_INVALID)
	}
	if encrypting {
		if padded {
			input = padPKCS7(input, aes.BlockSize)
		} else if len(input)%aes.BlockSize != 0 {
			return nil, objects.NewError("Operation.Final", "input is not block aligned", objects.CKR_ARGUMENTS_BAD)
		}
		out := make([]byte, len(input))
		cipher.NewCBCEncrypter(op.block, op.parameter).CryptBlocks(out, input)
		return out, nil
	}
	if len(input) == 0 || len(input)%aes.BlockSize != 0 {
		return nil, objects.NewError("Operation.Final", "input is not block aligned", objects.CKR_ARGUMENTS_BAD)
	}
	out := make([]byte, len(input))
	cipher.NewCBCDecrypter(op.block, op.parameter).CryptBlocks(out, input)
	if !padded {
		return out, nil
	}
	unpadded, ok := unpadPKCS7(out, aes.BlockSize)
	if !ok {
		return nil, objects.NewError("Operation.Final", "bad padding", objects.CKR_ARGUMENTS_BAD)
	}
	return unpadded, nil
}

func (op *Operation) runGCM(input []byte, encrypting bool) ([]byte, error) {
	aead, err := cipher.NewGCMWithNonceSize(op.block, len(op.parameter))
	if err != nil {
		return nil, objects.NewError("Operation.Final", "nonce size not supported", objects.CKR_MECHANISM_PARAM_INVALID)
	}
	if encrypting {
		return aead.Seal(nil, op.parameter, input, nil), nil
	}
	out, err := aead.Open(nil, op.parameter, input, nil)
	if err != nil {
		return nil, objects.NewError("Operation.Final", "authentication failed", objects.CKR_SIGNATURE_INVALID)
	}
	return out, nil
}

func newAESCipher(keyValue []byte) (cipher.Block, error) {
	block, err := aes.NewCipher(keyValue)
	if err != nil {
		return nil, objects.NewError("NewOperation", "key is not a valid cipher key", objects.CKR_KEY_SIZE_RANGE)
	}
	return block, nil
}

func padPKCS7(input []byte, blockSize int) []byte {
	pad := blockSize - len(input)%blockSize
	return append(append([]byte(nil), input...), bytes.Repeat([]byte{byte(pad)}, pad)...)
}

func unpadPKCS7(input []byte, blockSize int) ([]byte, bool) {
	if len(input) == 0 || len(input)%blockSize != 0 {
		return nil, false
	}
	pad := int(input[len(input)-1])
	if pad == 0 || pad > blockSize {
		return nil, false
	}
	for _, b := range input[len(input)-pad:] {
		if int(b) != pad {
			return nil, false
		}
	}
	return input[:len(input)-pad], true
}

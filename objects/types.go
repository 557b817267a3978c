package objects

import "encoding/binary"

// PKCS#11 typed identifiers used across the engine. The numeric values
// follow the OASIS PKCS#11 v2.40 headers, since callers branch on them.

type AttrType uint32

type ObjectClass uint32

type KeyType uint32

type MechanismType uint32

type ObjectHandle uint32

type SessionHandle uint32

type UserType uint32

// Return value of every boundary operation. Zero is success.
type RV uint32

// Attribute types.
const (
	CKA_CLASS              AttrType = 0x00000000
	CKA_TOKEN              AttrType = 0x00000001
	CKA_PRIVATE            AttrType = 0x00000002
	CKA_LABEL              AttrType = 0x00000003
	CKA_APPLICATION        AttrType = 0x00000010
	CKA_VALUE              AttrType = 0x00000011
	CKA_OBJECT_ID          AttrType = 0x00000012
	CKA_TRUSTED            AttrType = 0x00000086
	CKA_KEY_TYPE           AttrType = 0x00000100
	CKA_ID                 AttrType = 0x00000102
	CKA_SENSITIVE          AttrType = 0x00000103
	CKA_ENCRYPT            AttrType = 0x00000104
	CKA_DECRYPT            AttrType = 0x00000105
	CKA_WRAP               AttrType = 0x00000106
	CKA_UNWRAP             AttrType = 0x00000107
	CKA_SIGN               AttrType = 0x00000108
	CKA_SIGN_RECOVER       AttrType = 0x00000109
	CKA_VERIFY             AttrType = 0x0000010a
	CKA_VERIFY_RECOVER     AttrType = 0x0000010b
	CKA_DERIVE             AttrType = 0x0000010c
	CKA_START_DATE         AttrType = 0x00000110
	CKA_END_DATE           AttrType = 0x00000111
	CKA_VALUE_LEN          AttrType = 0x00000161
	CKA_EXTRACTABLE        AttrType = 0x00000162
	CKA_LOCAL              AttrType = 0x00000163
	CKA_NEVER_EXTRACTABLE  AttrType = 0x00000164
	CKA_ALWAYS_SENSITIVE   AttrType = 0x00000165
	CKA_KEY_GEN_MECHANISM  AttrType = 0x00000166
	CKA_MODIFIABLE         AttrType = 0x00000170
	CKA_COPYABLE           AttrType = 0x00000171
	CKA_DESTROYABLE        AttrType = 0x00000172
	CKA_WRAP_WITH_TRUSTED  AttrType = 0x00000210
	CKA_ALLOWED_MECHANISMS AttrType = 0x40000600
	CKA_VENDOR_DEFINED     AttrType = 0x80000000
)

// Object classes.
const (
	CKO_DATA        ObjectClass = 0x00000000
	CKO_CERTIFICATE ObjectClass = 0x00000001
	CKO_PUBLIC_KEY  ObjectClass = 0x00000002
	CKO_PRIVATE_KEY ObjectClass = 0x00000003
	CKO_SECRET_KEY  ObjectClass = 0x00000004

	CKO_VENDOR_DEFINED ObjectClass = 0x80000000
)

// Key types.
const (
	CKK_RSA            KeyType = 0x00000000
	CKK_EC             KeyType = 0x00000003
	CKK_GENERIC_SECRET KeyType = 0x00000010
	CKK_AES            KeyType = 0x0000001f

	CKK_VENDOR_DEFINED KeyType = 0x80000000
)

// Mechanism types.
const (
	CKM_SHA_1                  MechanismType = 0x00000220
	CKM_SHA_1_HMAC             MechanismType = 0x00000221
	CKM_SHA256                 MechanismType = 0x00000250
	CKM_SHA256_HMAC            MechanismType = 0x00000251
	CKM_SHA384                 MechanismType = 0x00000260
	CKM_SHA384_HMAC            MechanismType = 0x00000261
	CKM_SHA512                 MechanismType = 0x00000270
	CKM_SHA512_HMAC            MechanismType = 0x00000271
	CKM_GENERIC_SECRET_KEY_GEN MechanismType = 0x00000350
	CKM_SHA256_KEY_DERIVATION  MechanismType = 0x00000396
	CKM_AES_KEY_GEN            MechanismType = 0x00001080
	CKM_AES_ECB                MechanismType = 0x00001081
	CKM_AES_CBC                MechanismType = 0x00001082
	CKM_AES_CBC_PAD            MechanismType = 0x00001085
	CKM_AES_CTR                MechanismType = 0x00001086
	CKM_AES_GCM                MechanismType = 0x00001087
	CKM_AES_CMAC               MechanismType = 0x0000108a
	CKM_AES_ECB_ENCRYPT_DATA   MechanismType = 0x00001104
	CKM_AES_KEY_WRAP           MechanismType = 0x00002109
	CKM_HKDF_DERIVE            MechanismType = 0x0000402a

	CKM_VENDOR_DEFINED MechanismType = 0x80000000
)

// Mechanism capability flags, as reported by the registry and asserted by
// callers.
const (
	CKF_ENCRYPT           uint32 = 0x00000100
	CKF_DECRYPT           uint32 = 0x00000200
	CKF_DIGEST            uint32 = 0x00000400
	CKF_SIGN              uint32 = 0x00000800
	CKF_SIGN_RECOVER      uint32 = 0x00001000
	CKF_VERIFY            uint32 = 0x00002000
	CKF_VERIFY_RECOVER    uint32 = 0x00004000
	CKF_GENERATE          uint32 = 0x00008000
	CKF_GENERATE_KEY_PAIR uint32 = 0x00010000
	CKF_WRAP              uint32 = 0x00020000
	CKF_UNWRAP            uint32 = 0x00040000
	CKF_DERIVE            uint32 = 0x00080000
)

// Session flags.
const (
	CKF_RW_SESSION     uint64 = 0x00000002
	CKF_SERIAL_SESSION uint64 = 0x00000004
)

// Session states.
const (
	CKS_RO_PUBLIC_SESSION uint64 = 0
	CKS_RO_USER_FUNCTIONS uint64 = 1
	CKS_RW_PUBLIC_SESSION uint64 = 2
	CKS_RW_USER_FUNCTIONS uint64 = 3
	CKS_RW_SO_FUNCTIONS   uint64 = 4
)

// User types for Token.Login.
const (
	CKU_SO               UserType = 0
	CKU_USER             UserType = 1
	CKU_CONTEXT_SPECIFIC UserType = 2
)

// Return values.
const (
	CKR_OK                             RV = 0x00000000
	CKR_CANCEL                         RV = 0x00000001
	CKR_SLOT_ID_INVALID                RV = 0x00000003
	CKR_GENERAL_ERROR                  RV = 0x00000005
	CKR_ARGUMENTS_BAD                  RV = 0x00000007
	CKR_ATTRIBUTE_READ_ONLY            RV = 0x00000010
	CKR_ATTRIBUTE_SENSITIVE            RV = 0x00000011
	CKR_ATTRIBUTE_TYPE_INVALID         RV = 0x00000012
	CKR_ATTRIBUTE_VALUE_INVALID        RV = 0x00000013
	CKR_ACTION_PROHIBITED              RV = 0x0000001b
	CKR_DEVICE_ERROR                   RV = 0x00000030
	CKR_FUNCTION_NOT_SUPPORTED         RV = 0x00000054
	CKR_KEY_HANDLE_INVALID             RV = 0x00000060
	CKR_KEY_SIZE_RANGE                 RV = 0x00000062
	CKR_KEY_TYPE_INCONSISTENT          RV = 0x00000063
	CKR_KEY_FUNCTION_NOT_PERMITTED     RV = 0x00000068
	CKR_KEY_NOT_WRAPPABLE              RV = 0x00000069
	CKR_KEY_UNEXTRACTABLE              RV = 0x0000006a
	CKR_MECHANISM_INVALID              RV = 0x00000070
	CKR_MECHANISM_PARAM_INVALID        RV = 0x00000071
	CKR_OBJECT_HANDLE_INVALID          RV = 0x00000082
	CKR_OPERATION_ACTIVE               RV = 0x00000090
	CKR_OPERATION_NOT_INITIALIZED      RV = 0x00000091
	CKR_PIN_INCORRECT                  RV = 0x000000a0
	CKR_SESSION_HANDLE_INVALID         RV = 0x000000b3
	CKR_SESSION_READ_ONLY              RV = 0x000000b5
	CKR_SIGNATURE_INVALID              RV = 0x000000c0
	CKR_TEMPLATE_INCOMPLETE            RV = 0x000000d0
	CKR_TEMPLATE_INCONSISTENT          RV = 0x000000d1
	CKR_TOKEN_NOT_PRESENT              RV = 0x000000e0
	CKR_TOKEN_WRITE_PROTECTED          RV = 0x000000e2
	CKR_UNWRAPPING_KEY_HANDLE_INVALID  RV = 0x000000f0
	CKR_USER_ALREADY_LOGGED_IN         RV = 0x00000100
	CKR_USER_NOT_LOGGED_IN             RV = 0x00000101
	CKR_USER_TYPE_INVALID              RV = 0x00000103
	CKR_USER_ANOTHER_ALREADY_LOGGED_IN RV = 0x00000104
	CKR_WRAPPED_KEY_INVALID            RV = 0x00000110
	CKR_WRAPPING_KEY_HANDLE_INVALID    RV = 0x00000113
	CKR_BUFFER_TOO_SMALL               RV = 0x00000150
	CKR_CRYPTOKI_NOT_INITIALIZED       RV = 0x00000190
	CKR_CRYPTOKI_ALREADY_INITIALIZED   RV = 0x00000191
	CKR_VENDOR_DEFINED                 RV = 0x80000000

	// A derivation or pair template tried to relax a restriction the parent
	// carries. PKCS#11 has no dedicated code for this, and reporting it as a
	// plain template inconsistency would hide the one failure class this
	// engine exists to catch.
	CKR_RESTRICTION_WIDENED RV = CKR_VENDOR_DEFINED | 0x001
)

// Boolean attribute values are stored as a single byte, scalar values as a
// 32-bit little-endian word, matching the serialized attribute format.

func EncodeBool(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

func DecodeBool(value []byte) (bool, bool) {
	if len(value) != 1 {
		return false, false
	}
	return value[0] != 0, true
}

func EncodeULong(v uint32) []byte {
	value := make([]byte, 4)
	binary.LittleEndian.PutUint32(value, v)
	return value
}

func DecodeULong(value []byte) (uint32, bool) {
	if len(value) != 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(value), true
}

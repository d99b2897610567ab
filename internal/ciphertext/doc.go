// Package ciphertext defines the wire-level vocabulary shared by the gateway,
// the ledger, the decryption oracle and the verification engine: ciphertext
// handles, scalar widths, encryption contexts and the ABI cleartext encoding.
//
// Handle layout (38 bytes):
//
//	[0]      format version (1)
//	[1]      scalar width in bytes (1, 2, 4, 8)
//	[2:14]   AEAD nonce
//	[14:38]  sealed 8-byte big-endian value + 16-byte tag
//
// The handle carries no cleartext information; its header is authenticated
// as additional data when sealed.
package ciphertext

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package txsandbox

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// ParseAddress decodes a 20-byte address given as 40 hex digits with an
// optional 0x prefix. Mixed-case (checksummed) input is accepted, the
// checksum is not verified.
func ParseAddress(s string) (Address, error) {
	var res Address
	digits := trimHexPrefix(s)
	if len(digits) != 2*len(res) {
		return res, fmt.Errorf("%w: %q has %d hex digits, want %d", ErrInvalidAddress, s, len(digits), 2*len(res))
	}
	if _, err := hex.Decode(res[:], []byte(digits)); err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	return res, nil
}

// ParseRecipient decodes the recipient of a transaction. The empty string is
// the sentinel for contract creation and yields nil.
func ParseRecipient(s string) (*Address, error) {
	if s == "" {
		return nil, nil
	}
	addr, err := ParseAddress(s)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// ParseData decodes a hex payload. A leading 0x is stripped before decoding;
// an empty string or a bare "0x" yields empty data.
func ParseData(s string) (Data, error) {
	digits := trimHexPrefix(s)
	res, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return Data(res), nil
}

// EncodeData renders data as bare lower-case hex, the inverse of ParseData.
func EncodeData(data []byte) string {
	return hex.EncodeToString(data)
}

// ParseValue decodes a non-negative integer of at most 256 bits given either
// in decimal or as 0x-prefixed hex.
func ParseValue(s string) (Value, error) {
	if s == "" {
		return Value{}, fmt.Errorf("%w: empty string", ErrInvalidValue)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		res, err := uint256.FromHex(normalizeHexNumber(s[2:]))
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q: %v", ErrInvalidValue, s, err)
		}
		return ValueFromUint256(res), nil
	}
	res, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Value{}, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidValue, s)
	}
	return ValueFromBig(res)
}

// ValueFromBig converts a big integer into a Value, failing for negative
// numbers and numbers exceeding 256 bits.
func ValueFromBig(value *big.Int) (Value, error) {
	if value == nil {
		return Value{}, nil
	}
	if value.Sign() < 0 {
		return Value{}, fmt.Errorf("%w: %v is negative", ErrInvalidValue, value)
	}
	res, overflow := uint256.FromBig(value)
	if overflow {
		return Value{}, fmt.Errorf("%w: %v exceeds 256 bits", ErrInvalidValue, value)
	}
	return ValueFromUint256(res), nil
}

// normalizeHexNumber strips leading zeros since uint256.FromHex rejects
// them, keeping a single digit for zero.
func normalizeHexNumber(digits string) string {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" && digits != "" {
		trimmed = "0"
	}
	return "0x" + trimmed
}

func trimHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

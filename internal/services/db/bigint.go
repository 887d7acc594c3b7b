package db

import "math/big"

// amounts are stored as decimal text so arbitrary precision survives the db
// roundtrip; the empty string maps to a nil amount (unset limit)

func bigToString(n *big.Int) string {
	if n == nil {
		return ""
	}

	return n.String()
}

func stringToBig(s string) *big.Int {
	if s == "" {
		return nil
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil
	}

	return n
}

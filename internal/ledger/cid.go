package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// TransactionID derives a transaction id for a local ledger: a CIDv1 (raw,
// sha2-256) over the publish sequence number followed by the data. The
// sequence keeps ids unique when the same bytes are published twice.
func TransactionID(data []byte, seq int64) (string, error) {
	buf := make([]byte, 8, 8+len(data))
	binary.BigEndian.PutUint64(buf, uint64(seq))
	buf = append(buf, data...)

	sum, err := multihash.Sum(buf, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("hashing transaction: %w", err)
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}

// ValidTransactionID reports whether id parses as a CID.
func ValidTransactionID(id string) bool {
	_, err := cid.Decode(id)
	return err == nil
}

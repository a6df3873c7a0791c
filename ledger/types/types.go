package types

// RecordStatus is the status field persisted with every ledger record.
// The contract writes exactly one value; the type exists so readers do not
// compare against scattered literals.
type RecordStatus string

const StatusVerified RecordStatus = "VERIFIED"

// VerificationRecord is the contract-side persisted fact, keyed by document id.
// Immutable in the API sense: the contract exposes no update or delete, and a
// resubmission under the same id overwrites the prior value in key-value state
// (last write wins per key).
type VerificationRecord struct {
	DocID      string       `json:"docId"`
	OwnerID    string       `json:"ownerId"`
	DocHash    string       `json:"docHash"`
	VerifiedBy string       `json:"verifiedBy"`
	Timestamp  int64        `json:"timestamp"`
	Comments   string       `json:"comments"`
	Status     RecordStatus `json:"status"`
	// PayloadB64 carries the base64-encoded file bytes when the submitter
	// chose to anchor the payload alongside the hash.
	PayloadB64 string `json:"docBase64,omitempty"`
}

// Proof is the on-chain receipt returned after a successful submission.
type Proof struct {
	TransactionID string
	BlockHeight   uint64
	Timestamp     int64
}

// Submission carries the arguments of one verifyDocument transaction.
// Timestamp is the string form of an epoch-millis value, parsed by the
// contract.
type Submission struct {
	DocID      string
	OwnerID    string
	DocHash    string
	VerifiedBy string
	Timestamp  string
	Comments   string
	PayloadB64 string
}

// EventDocumentVerified is the topic of the event emitted on every
// successful verifyDocument transaction. The event payload is the full
// VerificationRecord, for out-of-band auditing.
const EventDocumentVerified = "DocumentVerified"

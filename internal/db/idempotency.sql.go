package db

// The idempotency claim is write-once and only ever executed inside the
// commit transaction in db_extensions.go: the claim, the status flip and
// the ledger entries land together or not at all. A standalone claim would
// let a crash strand the key with no durable commit behind it.
const claimIdempotencyKey = `-- name: ClaimIdempotencyKey :execrows
INSERT INTO idempotency_keys (key, transaction_id, created_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO NOTHING
`

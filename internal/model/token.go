package model

// Token is the long-lived credential issued on successful activation.
// The signature binds WorkerID, ExpireTime, and TokenID together under the
// shared secret; altering any of the three invalidates it. Tokens are never
// mutated after issuance — a re-activation replaces the whole token.
type Token struct {
	WorkerID   string `json:"worker_id"`
	IssueTime  int64  `json:"issue_time"`  // unix seconds
	ExpireTime int64  `json:"expire_time"` // unix seconds
	TokenID    string `json:"token_id"`
	Signature  string `json:"signature"`
}

// Empty reports whether the token carries no credential at all.
func (t *Token) Empty() bool {
	return t == nil || (t.WorkerID == "" && t.Signature == "")
}

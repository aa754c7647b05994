// session.go - Explicit operator session passed into core operations.
//
// The original system kept the current operator and in-progress sale in
// ambient screen state. Here that state is an explicit value created when
// the operator starts a sale and discarded at commit or abandonment, so
// nothing in the core reads globals.
package core

// Session identifies the operator driving the current operation.
type Session struct {
	OperatorID string
}

// Validate fails with ErrNoIdentity when no operator is attached.
func (s Session) Validate() error {
	if s.OperatorID == "" {
		return ErrNoIdentity
	}
	return nil
}

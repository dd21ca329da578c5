package types

import (
	"bytes"
	"fmt"
)

// Command is the opaque unit of work the protocol orders: a client, an
// opaque request id and an opaque operation payload. Equality is
// structural on all three fields; the core never looks inside Operation.
type Command struct {
	Client    ProcessId
	RequestId []byte
	Operation []byte
}

func (c Command) Equal(o Command) bool {
	return c.Client == o.Client &&
		bytes.Equal(c.RequestId, o.RequestId) &&
		bytes.Equal(c.Operation, o.Operation)
}

func (c Command) String() string {
	return fmt.Sprintf("Command{client:%v, reqId:%q, op:%q}", c.Client, c.RequestId, c.Operation)
}

package client

import (
	"errors"
	"fmt"
	"strings"
)

// FaultKind is the machine-checkable classification attached to every fault
// raised by the CA, so callers never have to match on raw fault text.
type FaultKind string

const (
	FaultAlreadyExists      FaultKind = "already_exists"
	FaultNotFound           FaultKind = "not_found"
	FaultAlreadyRevoked     FaultKind = "already_revoked"
	FaultUnknownCA          FaultKind = "unknown_ca"
	FaultInvalidProfile     FaultKind = "invalid_profile"
	FaultWaitingForApproval FaultKind = "waiting_for_approval"
	FaultUnknown            FaultKind = "unknown"
)

var ErrReconnectSuppressed = errors.New("reconnect attempted before floor interval elapsed")

// TransportError wraps network and TLS failures reaching the CA.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure on %s: %s", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteFault is a fault response from the CA: the operation reached the
// server and was rejected there.
type RemoteFault struct {
	Kind      FaultKind
	Code      string
	Message   string
	Operation string
}

func (e *RemoteFault) Error() string {
	return fmt.Sprintf("remote fault on %s (%s): %s", e.Operation, e.Kind, e.Message)
}

// AuthorizationError means the gateway certificate lacks the required role
// or privilege at the CA for the attempted operation.
type AuthorizationError struct {
	Message   string
	Operation string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization denied on %s: %s", e.Operation, e.Message)
}

// classifyFault maps EJBCA fault text to an error kind. The web service
// reports failures through exception class names and messages in the
// faultstring, so classification is by substring.
func classifyFault(operation string, code string, message string) error {
	lower := strings.ToLower(message)

	if strings.Contains(lower, "authorizationdenied") || strings.Contains(lower, "not authorized") {
		return &AuthorizationError{Message: message, Operation: operation}
	}

	kind := FaultUnknown
	switch {
	case strings.Contains(lower, "already exists"):
		kind = FaultAlreadyExists
	case strings.Contains(lower, "already revoked") || strings.Contains(lower, "alreadyrevoked"):
		kind = FaultAlreadyRevoked
	case strings.Contains(lower, "cadoesntexists") || strings.Contains(lower, "ca with name"):
		kind = FaultUnknownCA
	case strings.Contains(lower, "could not be found") ||
		strings.Contains(lower, "doesn't exist") ||
		strings.Contains(lower, "does not exist") ||
		strings.Contains(lower, "notfound"):
		kind = FaultNotFound
	case strings.Contains(lower, "profile"):
		kind = FaultInvalidProfile
	case strings.Contains(lower, "waitingforapproval") || strings.Contains(lower, "approval"):
		kind = FaultWaitingForApproval
	}
	return &RemoteFault{Kind: kind, Code: code, Message: message, Operation: operation}
}

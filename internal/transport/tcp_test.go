package transport

import (
	"testing"

	pkt "github.com/harrowgate/goqtt/internal/packet"
	"github.com/harrowgate/goqtt/pkg/er"
)

// An empty client id with clean_session=0 maps to NOT_AUTHORIZED, not
// IDENTIFIER_REJECTED.
func TestConnackCodeForEmptyClientIDNotAuthorized(t *testing.T) {
	err := &er.Err{Context: "Connect, ClientID", Message: er.ErrEmptyAndCleanSessionClientID}
	if got := connackCodeFor(err); got != pkt.NotAuthorized {
		t.Errorf("connackCodeFor(ErrEmptyAndCleanSessionClientID) = %#x, want NotAuthorized (%#x)", got, pkt.NotAuthorized)
	}
}

func TestConnackCodeForIdentifierRejectedCases(t *testing.T) {
	for _, sentinel := range []error{er.ErrInvalidCharsClientID, er.ErrClientIDLengthExceed} {
		err := &er.Err{Context: "Connect, ClientID", Message: sentinel}
		if got := connackCodeFor(err); got != pkt.IdentifierRejected {
			t.Errorf("connackCodeFor(%v) = %#x, want IdentifierRejected (%#x)", sentinel, got, pkt.IdentifierRejected)
		}
	}
}

func TestConnackCodeForBadCredentials(t *testing.T) {
	err := &er.Err{Context: "Connect, Auth", Message: er.ErrMalformedUsernameField}
	if got := connackCodeFor(err); got != pkt.BadUsernameOrPassword {
		t.Errorf("connackCodeFor(ErrMalformedUsernameField) = %#x, want BadUsernameOrPassword (%#x)", got, pkt.BadUsernameOrPassword)
	}
}

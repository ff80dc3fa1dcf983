package status

// Status identifies the outcome of a client library operation.
//
// Codes are stable and numeric so they can cross a language boundary
// unchanged; new codes may be added, but existing values never change
// meaning.
type Status uint32

const (
	// Success reports that the operation completed.
	Success Status = 0

	// InvalidInput reports that an input was malformed. No I/O was attempted.
	InvalidInput Status = 1

	// NotSupported reports that a requested capability (connection scheme,
	// authentication method) is unavailable on this platform or build.
	NotSupported Status = 2

	// ConnectIo reports a transport-level I/O failure while connecting to or
	// authenticating with the daemon.
	ConnectIo Status = 3

	// BadAuth reports that the daemon explicitly rejected our authentication.
	BadAuth Status = 4

	// PeerProtocolViolation reports that the daemon sent structurally invalid
	// protocol data.
	PeerProtocolViolation Status = 5

	// Shutdown reports that the connection was closed or reset while requests
	// were outstanding, or that a request was attempted on a dead connection.
	Shutdown Status = 6

	// Internal reports a library-internal invariant violation. Seeing it
	// probably means a bug in this library.
	Internal Status = 7

	// RequestFailed reports that the daemon returned an error response for a
	// specific request id.
	RequestFailed Status = 8

	// RequestCancelled is reserved for a future cancellation API. Nothing in
	// this library produces it yet.
	RequestCancelled Status = 9
)

// String returns a short human-readable name for the status. It is always
// non-empty, even for codes this build does not recognize.
func (s Status) String() string {
	switch s {
	case Success:
		return "Success"
	case InvalidInput:
		return "Invalid input"
	case NotSupported:
		return "Not supported"
	case ConnectIo:
		return "An I/O error occurred while connecting to the daemon"
	case BadAuth:
		return "Authentication rejected"
	case PeerProtocolViolation:
		return "Peer violated the RPC protocol"
	case Shutdown:
		return "Peer has shut down"
	case Internal:
		return "Internal error; possible bug?"
	case RequestFailed:
		return "Request has failed"
	case RequestCancelled:
		return "Request was cancelled"
	default:
		return "(unrecognized status)"
	}
}

package models

type Method string

const (
	MethodAnnounce  Method = "ANNOUNCE"
	MethodQuery     Method = "QUERY"
	MethodEnumerate Method = "ENUMERATE"
	MethodFetch     Method = "FETCH"
)

type Status int

const (
	StatusOK                  Status = 200
	StatusBadRequest          Status = 400
	StatusNotFound            Status = 404
	StatusVersionNotSupported Status = 505
)

func (s Status) Phrase() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	case StatusVersionNotSupported:
		return "P2P-DI Version Not Supported"
	default:
		return "Unknown"
	}
}

// ControlRequest is one peer-to-registry message. DocID is meaningless for
// Enumerate; Title is empty unless the sender supplied one.
type ControlRequest struct {
	Method  Method
	DocID   int
	Version string
	Host    string
	Port    int
	Title   string
}

type ControlResponse struct {
	Version string
	Status  Status
	Records []Record
}

// TransferRequest asks a peer's upload server for one document.
type TransferRequest struct {
	DocID   int
	Version string
	Host    string
	OS      string
}

type TransferResponse struct {
	Version       string
	Status        Status
	Date          string
	OS            string
	LastModified  string
	ContentLength int
	ContentType   string
	Body          []byte
}

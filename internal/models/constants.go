package models

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

const (
	// SessionKeyToken and SessionKeyUser are the two persisted session keys.
	SessionKeyToken = "token"
	SessionKeyUser  = "user"
	// SessionKeyNotice carries a flash notice across a redirect.
	SessionKeyNotice = "notice"
)

// DateLayout is the wire and form format of reservation dates.
const DateLayout = "2006-01-02"

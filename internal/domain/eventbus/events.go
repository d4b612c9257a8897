package eventbus

import "time"

// 人机验证组件事件
const (
	EventVerificationToken   = "verification:token"
	EventVerificationError   = "verification:error"
	EventVerificationExpired = "verification:expired"
)

// VerificationEventData is the payload of every verification topic. Token is
// only set for EventVerificationToken.
type VerificationEventData struct {
	Token  string    `json:"token,omitempty"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

package client

import "github.com/gate4ai/a2a/a2a"

// ClientConfig is the per-client policy applied to every message/send
// and message/stream call before dispatch.
type ClientConfig struct {
	// Polling, when true, forces configuration.blocking=false on every
	// call that does not set Blocking explicitly itself.
	Polling bool
	// DefaultAcceptedOutputModes is merged in when a call's
	// configuration does not set AcceptedOutputModes.
	DefaultAcceptedOutputModes []string
	// DefaultPushNotificationConfig is merged in when a call's
	// configuration does not set PushNotificationConfig.
	DefaultPushNotificationConfig *a2a.PushNotificationConfig
}

// apply fills in params.Configuration's unset fields from the policy,
// without overriding anything the caller explicitly set.
func (c ClientConfig) apply(params *a2a.MessageSendParams) {
	if params.Configuration == nil {
		params.Configuration = &a2a.MessageSendConfiguration{}
	}
	cfg := params.Configuration
	if cfg.Blocking == nil {
		blocking := !c.Polling
		cfg.Blocking = &blocking
	}
	if len(cfg.AcceptedOutputModes) == 0 {
		cfg.AcceptedOutputModes = c.DefaultAcceptedOutputModes
	}
	if cfg.PushNotificationConfig == nil {
		cfg.PushNotificationConfig = c.DefaultPushNotificationConfig
	}
}

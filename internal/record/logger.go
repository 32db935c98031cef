package record

import "strings"

// loggerClasses maps the first segment of a logger name to its class.
var loggerClasses = map[string]LoggerClass{
	"":      Command,
	"cmd":   Command,
	"setup": Command,

	"controller-runtime": Runtime,

	"controller":    Controller,
	"baremetalhost": Controller,
	"controllers":   Controller,

	"baremetalhost_ironic": Provisioner,
	"provisioner":          Provisioner,

	"webhooks":                        Webhook,
	"baremetalhost-resource":          Webhook,
	"baremetalhost-validation":        Webhook,
	"bmceventsubscription-resource":   Webhook,
	"bmceventsubscription-validation": Webhook,
	"hostfirmwaresettings-validation": Webhook,
	"dataimage-validation":            Webhook,
}

// classifyLogger returns the class and sub-logger for a raw logger name.
// controller is the value of the payload's "controller" field, if any.
func classifyLogger(raw, controller string) (LoggerClass, string) {
	if raw == "" && controller != "" {
		return Controller, strings.ToLower(controller)
	}

	prefix, rest, found := strings.Cut(raw, ".")
	class, ok := loggerClasses[prefix]
	if !ok {
		class = Unclassified
	}
	if found {
		return class, strings.ToLower(rest)
	}
	head, _, _ := strings.Cut(raw, "-")
	return class, strings.ToLower(head)
}

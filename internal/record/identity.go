package record

import (
	"strings"

	"github.com/valyala/fastjson"
)

// resourceFields lists the typed resource fields in priority order. Both the
// lower-case and the Kind spelling have been used by different releases.
var resourceFields = []string{
	"baremetalhost",
	"BareMetalHost",
	"preprovisioningimage",
	"PreprovisioningImage",
	"hostfirmwaresettings",
	"HostFirmwareSettings",
	"hostfirmwarecomponents",
	"HostFirmwareComponents",
	"bmceventsubscription",
	"BMCEventSubscription",
	"dataimage",
	"DataImage",
	"hostupdatepolicy",
	"HostUpdatePolicy",
}

// identitySource is where a record's resource identity was found.
type identitySource interface {
	identitySource()
}

// refString is a combined reference such as "ns/name" or "ns~name".
type refString struct {
	text string
	sep  string
}

// refObject is a reference of the form {"namespace": ..., "name": ...}.
type refObject struct {
	namespace string
	name      string
}

func (refString) identitySource() {}
func (refObject) identitySource() {}

type identity struct {
	name      string
	namespace string
	// consumed is the typed resource field the identity came from, if any.
	consumed string
}

func resolveIdentity(o *fastjson.Object, class LoggerClass, hasStacktrace bool) identity {
	var (
		src      identitySource
		consumed string
	)

	if class == Provisioner {
		if host := stringField(o, "host"); host != "" {
			src = refString{text: host, sep: "~"}
		}
	} else {
		for _, key := range resourceFields {
			if s := resourceRef(o.Get(key)); s != nil {
				src, consumed = s, key
				break
			}
		}
		if src == nil {
			for _, key := range []string{"Request.Name", "name"} {
				if v := stringField(o, key); v != "" {
					src = refString{text: v, sep: "/"}
					break
				}
			}
		}
	}

	if src == nil && hasStacktrace {
		if req := stringField(o, "request"); req != "" {
			src = refString{text: req, sep: "/"}
		}
	}

	id := identity{consumed: consumed}
	switch s := src.(type) {
	case refString:
		if ns, name, ok := strings.Cut(s.text, s.sep); ok {
			id.namespace, id.name = ns, name
		} else {
			id.name = s.text
		}
	case refObject:
		id.namespace, id.name = s.namespace, s.name
	}

	// A structured resource field carries its own namespace.
	if obj, ok := src.(refObject); ok && obj.namespace != "" {
		return id
	}
	for _, key := range []string{"namespace", "Request.Namespace"} {
		if ns := stringField(o, key); ns != "" {
			id.namespace = ns
			break
		}
	}
	return id
}

// resourceRef interprets a typed resource field. It returns nil when the
// field is missing or has neither supported shape.
func resourceRef(v *fastjson.Value) identitySource {
	if v == nil {
		return nil
	}
	switch v.Type() {
	case fastjson.TypeString:
		if s := string(v.GetStringBytes()); s != "" {
			return refString{text: s, sep: "/"}
		}
	case fastjson.TypeObject:
		name := string(v.GetStringBytes("name"))
		if name != "" {
			return refObject{namespace: string(v.GetStringBytes("namespace")), name: name}
		}
	}
	return nil
}

// stringField returns the string value of key, or "" when it is missing or
// not a string.
func stringField(o *fastjson.Object, key string) string {
	v := o.Get(key)
	if v == nil || v.Type() != fastjson.TypeString {
		return ""
	}
	return string(v.GetStringBytes())
}

package install

import (
	"errors"
	"strings"

	errs "github.com/jxwalker/modinstall/internal/errors"
	"github.com/jxwalker/modinstall/internal/logging"
)

// ReportFailure logs err the way every install failure is logged: the
// wrapping context, then the root cause, then one terminal line naming the
// root cause. Nothing is returned; the failure stops here.
func ReportFailure(log *logging.Logger, err error) {
	if err == nil {
		return
	}
	chain := errs.Chain(err)
	root := chain[len(chain)-1]

	if len(chain) > 1 {
		msgs := make([]string, 0, len(chain)-1)
		for _, e := range chain[:len(chain)-1] {
			msgs = append(msgs, describeLayer(e))
		}
		log.Warnf("install failure context: %s", strings.Join(msgs, " <- "))
	}
	var pe *PanicError
	if errors.As(root, &pe) && len(pe.Stack) > 0 {
		log.Debugf("panic stack:\n%s", pe.Stack)
	}
	log.Errorf("root cause (%T): %v", root, root)
	log.Errorf("%v - cannot continue", root)
}

// describeLayer names one wrapping layer without repeating the text of the
// errors it wraps.
func describeLayer(e error) string {
	var ie *errs.InstallError
	if errors.As(e, &ie) && ie == e {
		return ie.Phase.String()
	}
	msg := e.Error()
	if inner := errors.Unwrap(e); inner != nil {
		msg = strings.TrimSuffix(msg, inner.Error())
		msg = strings.TrimSuffix(strings.TrimSpace(msg), ":")
	}
	if msg == "" {
		return "(wrapped)"
	}
	return msg
}

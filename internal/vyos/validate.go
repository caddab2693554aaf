package vyos

import (
	"errors"
	"fmt"
	"net/netip"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go4.org/netipx"
)

// ValidationError is one field-level problem found before anything is sent.
type ValidationError struct {
	FieldPath string // json name of the form field, with list index when relevant
	Message   string
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
	}
	return sb.String()
}

var validate *validator.Validate

var (
	ifaceNameRe = regexp.MustCompile(`^(eth|bond|br|wg|vtun|pppoe|lo|dum|veth|wlan|peth)[0-9]+(\.[0-9]+)?$`)
	listNameRe  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,62}$`)
	portSpecRe  = regexp.MustCompile(`^!?([0-9]{1,5}(-[0-9]{1,5})?|[a-z][a-z0-9-]*)(,([0-9]{1,5}(-[0-9]{1,5})?|[a-z][a-z0-9-]*))*$`)
	communityRe = regexp.MustCompile(`^([0-9]{1,10}:[0-9]{1,10}|internet|local-as|no-advertise|no-export|none|additive)( ([0-9]{1,10}:[0-9]{1,10}|internet|local-as|no-advertise|no-export|none|additive))*$`)
)

func init() {
	validate = validator.New()

	for tag, fn := range map[string]validator.Func{
		"vyos_address": validateAddress,
		"ip_or_prefix": validateIPOrPrefix,
		"ip_match":     validateIPMatch,
		"ip_range":     validateIPRange,
		"iface":        validateIface,
		"list_name":    validateListName,
		"port_spec":    validatePortSpec,
		"intrange":     validateIntRange,
		"community":    validateCommunity,
		"regex":        validateRegex,
	} {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	validate.RegisterStructValidation(validatePrefixBounds, PrefixListForm{})
	validate.RegisterStructValidation(validateDHCPSubnet, DHCPForm{})

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateForm checks a form's validate tags. It returns ValidationErrors
// or nil.
func ValidateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(validatorErrs))
	for _, e := range validatorErrs {
		out = append(out, ValidationError{
			FieldPath: fieldPath(e),
			Message:   getValidationMessage(e),
		})
	}
	return out
}

// fieldPath strips the struct name from a namespace like "EthernetForm.addresses[1]".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

// getValidationMessage returns a human-readable message for a validation error
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "mac":
		return "must be a MAC address (aa:bb:cc:dd:ee:ff)"
	case "ip":
		return "must be an IP address"
	case "cidr":
		return "must be a prefix in CIDR notation"
	case "vyos_address":
		return "must be an address with prefix length (192.0.2.1/24), dhcp or dhcpv6"
	case "ip_or_prefix":
		return "must be an IP address or a CIDR prefix"
	case "ip_match":
		return "must be an IP address, CIDR prefix or range (a.b.c.d-e.f.g.h), optionally negated with !"
	case "ip_range":
		return "must be a range start-stop with start <= stop"
	case "iface":
		return "must be an interface name (eth0, eth0.10, bond1, ...)"
	case "list_name":
		return "must start with a letter or digit and contain only letters, digits, '_', '.', '-'"
	case "port_spec":
		return "must be a port, range or service name list (80,443,8000-8080)"
	case "intrange":
		lo, hi, _ := strings.Cut(e.Param(), ":")
		return fmt.Sprintf("must be a number between %s and %s", lo, hi)
	case "community":
		return "must be AA:NN values or well-known community names"
	case "regex":
		return "must be a valid regular expression"
	case "fqdn":
		return "must be a domain name"
	case "ipv4":
		return "must be an IPv4 address"
	case "required_if", "required_with":
		return "field is required here"
	case "prefix_bounds":
		return "must lie between the prefix length and the address size"
	case "le_below_ge":
		return "must not be lower than ge"
	case "in_subnet":
		return fmt.Sprintf("must be inside subnet %s", e.Param())
	case "range_overlap":
		return "overlaps another range"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

func validateAddress(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "dhcp" || value == "dhcpv6" {
		return true
	}
	_, err := netip.ParsePrefix(value)
	return err == nil
}

func validateIPOrPrefix(fl validator.FieldLevel) bool {
	return isIPOrPrefix(fl.Field().String())
}

func isIPOrPrefix(value string) bool {
	if _, err := netip.ParseAddr(value); err == nil {
		return true
	}
	_, err := netip.ParsePrefix(value)
	return err == nil
}

// validateIPMatch accepts what firewall and NAT rules match on: an address,
// a prefix or a range, optionally negated.
func validateIPMatch(fl validator.FieldLevel) bool {
	value := strings.TrimPrefix(fl.Field().String(), "!")
	if isIPOrPrefix(value) {
		return true
	}
	r, err := netipx.ParseIPRange(value)
	return err == nil && r.IsValid()
}

func validateIPRange(fl validator.FieldLevel) bool {
	_, err := ParseRange(fl.Field().String())
	return err == nil
}

// ParseRange parses "start-stop" into a valid address range.
func ParseRange(value string) (netipx.IPRange, error) {
	r, err := netipx.ParseIPRange(strings.TrimSpace(value))
	if err != nil {
		return netipx.IPRange{}, err
	}
	if !r.IsValid() {
		return netipx.IPRange{}, fmt.Errorf("invalid range %q", value)
	}
	return r, nil
}

func validateIface(fl validator.FieldLevel) bool {
	return ifaceNameRe.MatchString(fl.Field().String())
}

func validateListName(fl validator.FieldLevel) bool {
	return listNameRe.MatchString(fl.Field().String())
}

func validatePortSpec(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if !portSpecRe.MatchString(value) {
		return false
	}
	for _, part := range strings.Split(strings.TrimPrefix(value, "!"), ",") {
		for _, p := range strings.Split(part, "-") {
			if n, err := strconv.Atoi(p); err == nil && (n < 1 || n > 65535) {
				return false
			}
		}
	}
	return true
}

// validateIntRange checks a numeric string against "lo:hi".
func validateIntRange(fl validator.FieldLevel) bool {
	lo, hi, ok := strings.Cut(fl.Param(), ":")
	if !ok {
		return false
	}
	lower, err1 := strconv.Atoi(lo)
	upper, err2 := strconv.Atoi(hi)
	n, err3 := strconv.Atoi(fl.Field().String())
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	return n >= lower && n <= upper
}

func validateCommunity(fl validator.FieldLevel) bool {
	return communityRe.MatchString(fl.Field().String())
}

func validateRegex(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

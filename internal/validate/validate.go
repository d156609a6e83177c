// Package validate hand-rolls the configuration validator: schema and
// cross-component dependency checks over untyped map[string]any sections,
// field-for-field equivalent to original_source/sf_dia/validation.py. The
// input comes from dynamic JSON with no fixed shape across deployments, and
// the cross-field rules compare three independent sections at once, which a
// single struct's `validate` tags cannot express — hence hand-written
// rather than go-playground/validator, which this module does not use at
// all (internal/api decodes request bodies into maps without tag-based
// validation).
package validate

import (
	"fmt"
	"strings"

	"github.com/psi-dia/integration-manager/internal/dia"
)

// UserIDRange is the inclusive e-account user-id range accepted by the
// writer and aux-bus configs.
var UserIDRange = [2]int{10000, 29999}

var mandatoryWriterKeys = []string{"n_frames", "user_id", "output_file"}
var mandatoryBackendKeys = []string{"bit_depth", "n_frames"}
var mandatoryDetectorKeys = []string{"dr", "exptime", "cycles"}
var mandatoryBsreadKeys = []string{"output_file", "user_id"}

// fileFormatKeys must be present and string-typed on writer and aux-bus
// configs, mirroring FILE_FORMAT_INPUT_PARAMETERS.
var fileFormatKeys = []string{"general/created", "general/user", "general/process", "general/instrument"}

func missingKeys(cfg map[string]any, required []string) []string {
	var missing []string
	for _, k := range required {
		if _, ok := cfg[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

func unexpectedKeys(cfg map[string]any, allowed []string) []string {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, k := range allowed {
		allowedSet[k] = struct{}{}
	}
	var unexpected []string
	for k := range cfg {
		if _, ok := allowedSet[k]; !ok {
			unexpected = append(unexpected, k)
		}
	}
	return unexpected
}

func badFileFormatTypes(cfg map[string]any) []string {
	var bad []string
	for _, k := range fileFormatKeys {
		if v, ok := cfg[k]; ok {
			if _, isString := v.(string); !isString {
				bad = append(bad, k)
			}
		}
	}
	return bad
}

func checkUserIDRange(cfg map[string]any) error {
	raw, ok := cfg["user_id"]
	if !ok {
		return nil
	}
	userID, ok := asInt(raw)
	if !ok {
		return dia.New(dia.InvalidConfig, "user_id must be an integer, got %v", raw)
	}
	if userID < UserIDRange[0] || userID > UserIDRange[1] {
		return dia.New(dia.InvalidConfig, "user_id %d outside of range [%d-%d]", userID, UserIDRange[0], UserIDRange[1])
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// DevNullSentinel disables all output-file suffixing: a writer or aux-bus
// configured with it is discarding its data deliberately (a dry run), so
// neither the .h5 normalization nor the per-detector derivation in
// internal/manager touches it.
const DevNullSentinel = "/dev/null"

// normalizeOutputFile appends ".h5" in place if output_file does not
// already end with it, mirroring validate_writer_config's suffix check.
// Idempotent: a second call on the already-suffixed value is a no-op
// (invariant 4, "derivation idempotence"). DevNullSentinel is left
// untouched.
func normalizeOutputFile(cfg map[string]any) {
	raw, ok := cfg["output_file"].(string)
	if !ok || raw == DevNullSentinel {
		return
	}
	if !strings.HasSuffix(raw, ".h5") {
		cfg["output_file"] = raw + ".h5"
	}
}

// Writer validates a writer configuration section.
func Writer(cfg map[string]any) error {
	if len(cfg) == 0 {
		return dia.New(dia.InvalidConfig, "writer configuration cannot be empty")
	}
	allowed := append(append([]string{}, mandatoryWriterKeys...), fileFormatKeys...)
	if missing := missingKeys(cfg, allowed); len(missing) > 0 {
		return dia.New(dia.InvalidConfig, "writer configuration missing mandatory parameters: %v", missing)
	}
	if unexpected := unexpectedKeys(cfg, allowed); len(unexpected) > 0 {
		return dia.New(dia.InvalidConfig, "received unexpected parameters for writer: %v", unexpected)
	}
	if bad := badFileFormatTypes(cfg); len(bad) > 0 {
		return dia.New(dia.InvalidConfig, "writer parameters must be strings: %v", bad)
	}
	if err := checkUserIDRange(cfg); err != nil {
		return err
	}
	normalizeOutputFile(cfg)
	return nil
}

// Backend validates a backend configuration section.
func Backend(cfg map[string]any) error {
	if len(cfg) == 0 {
		return dia.New(dia.InvalidConfig, "backend configuration cannot be empty")
	}
	if missing := missingKeys(cfg, mandatoryBackendKeys); len(missing) > 0 {
		return dia.New(dia.InvalidConfig, "backend configuration missing mandatory parameters: %v", missing)
	}
	return nil
}

// Detector validates a detector configuration section.
func Detector(cfg map[string]any) error {
	if len(cfg) == 0 {
		return dia.New(dia.InvalidConfig, "detector configuration cannot be empty")
	}
	if missing := missingKeys(cfg, mandatoryDetectorKeys); len(missing) > 0 {
		return dia.New(dia.InvalidConfig, "detector configuration missing mandatory parameters: %v", missing)
	}
	return nil
}

// AuxBus validates the shared aux-bus writer configuration section. Same
// rules as Writer but with its own mandatory key set (no n_frames).
func AuxBus(cfg map[string]any) error {
	if len(cfg) == 0 {
		return dia.New(dia.InvalidConfig, "aux-bus configuration cannot be empty")
	}
	allowed := append(append([]string{}, mandatoryBsreadKeys...), fileFormatKeys...)
	if missing := missingKeys(cfg, allowed); len(missing) > 0 {
		return dia.New(dia.InvalidConfig, "aux-bus configuration missing mandatory parameters: %v", missing)
	}
	if unexpected := unexpectedKeys(cfg, allowed); len(unexpected) > 0 {
		return dia.New(dia.InvalidConfig, "received unexpected parameters for aux-bus: %v", unexpected)
	}
	if bad := badFileFormatTypes(cfg); len(bad) > 0 {
		return dia.New(dia.InvalidConfig, "aux-bus parameters must be strings: %v", bad)
	}
	if err := checkUserIDRange(cfg); err != nil {
		return err
	}
	normalizeOutputFile(cfg)
	return nil
}

// CrossDependencies checks the three invariants that must hold across the
// writer/backend/detector sections once each has individually validated.
func CrossDependencies(writer, backend, detector map[string]any) error {
	if !equalNumeric(backend["bit_depth"], detector["dr"]) {
		return dia.New(dia.InvalidConfig, "backend bit_depth %v must equal detector dr %v", backend["bit_depth"], detector["dr"])
	}
	if !equalNumeric(backend["n_frames"], detector["cycles"]) {
		return dia.New(dia.InvalidConfig, "backend n_frames %v must equal detector cycles %v", backend["n_frames"], detector["cycles"])
	}
	if !equalNumeric(writer["n_frames"], backend["n_frames"]) {
		return dia.New(dia.InvalidConfig, "writer n_frames %v must equal backend n_frames %v", writer["n_frames"], backend["n_frames"])
	}
	return nil
}

func equalNumeric(a, b any) bool {
	an, aok := asInt(a)
	bn, bok := asInt(b)
	if !aok || !bok {
		return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
	}
	return an == bn
}

package stages

import (
	"github.com/go-viper/mapstructure/v2"
)

// Options is the per-stage options bag of a rule, already resolved for the
// build mode. It is shared by every module the rule matches and must be
// treated as read-only.
type Options map[string]interface{}

// Decode copies the options into target, a pointer to a struct tagged with
// `option:"name"`. Unknown keys are an error so typos surface while the rule
// table is compiled.
func (o Options) Decode(target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "option",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(map[string]interface{}(o))
}

// Merge returns a new bag with the keys of o overlaid by the keys of overlay
func (o Options) Merge(overlay map[string]interface{}) Options {
	merged := make(Options, len(o)+len(overlay))
	for k, v := range o {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

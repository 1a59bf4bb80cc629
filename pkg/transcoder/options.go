// Package transcoder declares the video transcoder settings form on top of
// formopts.
package transcoder

import (
	formopts "github.com/goliatone/go-form-options"
)

// Option keys.
const (
	KeyMode                  = "mode"
	KeyMaxMuxingQueueSize    = "max_muxing_queue_size"
	KeyVideoCodec            = "video_codec"
	KeyVideoEncoder          = "video_encoder"
	KeyMainOptions           = "main_options"
	KeyAdvancedOptions       = "advanced_options"
	KeyCustomOptions         = "custom_options"
	KeyKeepContainer         = "keep_container"
	KeyDestContainer         = "dest_container"
	KeyApplySmartFilters     = "apply_smart_filters"
	KeyAutocropBlackBars     = "autocrop_black_bars"
	KeyApplyCustomFilters    = "apply_custom_filters"
	KeyCustomSoftwareFilters = "custom_software_filters"
)

// Sections, in display order.
const (
	SectionMainOptions          = "main_options"
	SectionEncoderSelection     = "encoder_selection"
	SectionAdvancedInputOptions = "advanced_input_options"
	SectionOutputSettings       = "output_settings"
	SectionFilterSettings       = "filter_settings"
)

// Mode is the configuration depth the user opted into.
type Mode string

const (
	ModeBasic    Mode = "basic"
	ModeStandard Mode = "standard"
	// ModeAdvanced gates the raw FFmpeg option fields. It is not offered in
	// the mode select yet, so those fields stay hidden.
	ModeAdvanced Mode = "advanced"
)

// Codec values for KeyVideoCodec.
const (
	CodecH264 = "h264"
	CodecHEVC = "hevc"
)

// Domain is the state domain the transcoder settings persist under.
const Domain = "video_transcoder"

// Definitions returns the option set in declaration order. The order matters:
// ResolveAll reconciles video_encoder after video_codec.
func Definitions() []formopts.Definition {
	return []formopts.Definition{
		{
			Key:     KeyMode,
			Default: string(ModeBasic),
			Label:   "Config mode",
			Section: SectionMainOptions,
			Input: formopts.Select(
				formopts.Choice{Value: string(ModeBasic), Label: "Basic (Not sure what I am doing. Configure most of it for me.)"},
				formopts.Choice{Value: string(ModeStandard), Label: "Standard (I know how to transcode some video. Let me tweak some settings.)"},
			),
		},
		{
			Key:     KeyMaxMuxingQueueSize,
			Default: 2048,
			Label:   "Max input stream packet buffer",
			Section: SectionMainOptions,
			Input:   formopts.Slider(1024, 10240),
			Guards:  []formopts.Guard{formopts.In(KeyMode, string(ModeStandard), string(ModeAdvanced))},
		},
		{
			Key:     KeyVideoCodec,
			Default: CodecHEVC,
			Label:   "Video Codec",
			Section: SectionEncoderSelection,
			Input: formopts.Select(
				formopts.Choice{Value: CodecH264, Label: "H264"},
				formopts.Choice{Value: CodecHEVC, Label: "HEVC/H265"},
			),
		},
		{
			Key:     KeyVideoEncoder,
			Default: "libx265",
			Label:   "Video Encoder",
			Section: SectionEncoderSelection,
			Input: formopts.SelectBy(KeyVideoCodec,
				formopts.When(CodecHEVC,
					formopts.Choice{Value: "libx265", Label: "CPU - libx265"},
					formopts.Choice{Value: "hevc_qsv", Label: "QSV - hevc_qsv"},
					formopts.Choice{Value: "hevc_vaapi", Label: "VAAPI - hevc_vaapi"},
				),
				formopts.When(CodecH264,
					formopts.Choice{Value: "libx264", Label: "CPU - libx264"},
					formopts.Choice{Value: "h264_qsv", Label: "QSV - h264_qsv"},
				),
			),
		},
		{
			Key:     KeyMainOptions,
			Default: "",
			Label:   "Write your own custom main options",
			Section: SectionAdvancedInputOptions,
			Input:   formopts.TextArea(),
			Guards:  []formopts.Guard{advancedOnly()},
		},
		{
			Key:     KeyAdvancedOptions,
			Default: "-strict -2\n-max_muxing_queue_size 2048\n",
			Label:   "Write your own custom advanced options",
			Section: SectionAdvancedInputOptions,
			Input:   formopts.TextArea(),
			Guards:  []formopts.Guard{advancedOnly()},
		},
		{
			Key:     KeyCustomOptions,
			Default: "-preset slow\n-tune film\n-global_quality 23\n-look_ahead 1\n",
			Label:   "Write your own custom video options",
			Section: SectionAdvancedInputOptions,
			Input:   formopts.TextArea(),
			Guards:  []formopts.Guard{advancedOnly()},
		},
		{
			Key:     KeyKeepContainer,
			Default: true,
			Label:   "Keep the same container",
			Section: SectionOutputSettings,
			Input:   formopts.Checkbox(),
		},
		{
			Key:        KeyDestContainer,
			Default:    "mkv",
			Label:      "Set the output container",
			Section:    SectionOutputSettings,
			SubSetting: true,
			Input: formopts.Select(
				formopts.Choice{Value: "mkv", Label: ".mkv - Matroska"},
				formopts.Choice{Value: "mp4", Label: ".mp4 - MP4 (MPEG-4 Part 14)"},
			),
			Guards: []formopts.Guard{formopts.IsFalse(KeyKeepContainer)},
		},
		{
			Key:     KeyApplySmartFilters,
			Default: false,
			Label:   "Enable plugin smart video filters",
			Tooltip: "Provides some pre-configured FFmpeg filtergraphs",
			Section: SectionFilterSettings,
			Input:   formopts.Checkbox(),
			Guards:  []formopts.Guard{standardOnly()},
		},
		{
			Key:     KeyAutocropBlackBars,
			Default: false,
			Label:   "Autocrop black bars",
			Description: "Runs FFmpeg 'cropdetect' on the file to auto-detect the crop size.\n" +
				"This detected crop size is then applied during video transcode as a 'crop' filter.",
			Section:    SectionFilterSettings,
			SubSetting: true,
			Input:      formopts.Checkbox(),
			Guards:     []formopts.Guard{formopts.IsTrue(KeyApplySmartFilters), standardOnly()},
		},
		{
			Key:     KeyApplyCustomFilters,
			Default: false,
			Label:   "Enable custom video filters",
			Tooltip: "Provides text input for adding custom FFmpeg filtergraphs",
			Section: SectionFilterSettings,
			Input:   formopts.Checkbox(),
			Guards:  []formopts.Guard{standardOnly()},
		},
		{
			Key:         KeyCustomSoftwareFilters,
			Default:     "",
			Label:       "Custom video filters",
			Description: "Video filters and filter chains - https://trac.ffmpeg.org/wiki/FilteringGuide",
			Tooltip:     "Separate each filter chain by a linebreak",
			Section:     SectionFilterSettings,
			SubSetting:  true,
			Input:       formopts.TextArea(),
			Guards:      []formopts.Guard{formopts.IsTrue(KeyApplyCustomFilters), standardOnly()},
		},
	}
}

func advancedOnly() formopts.Guard { return formopts.Equals(KeyMode, string(ModeAdvanced)) }

func standardOnly() formopts.Guard { return formopts.Equals(KeyMode, string(ModeStandard)) }

// Defaults returns the default value of every option.
func Defaults() formopts.Values {
	defs := Definitions()
	out := make(formopts.Values, len(defs))
	for _, def := range defs {
		out[def.Key] = def.Default
	}
	return out
}

// NewRegistry builds a registry over Definitions.
func NewRegistry(opts ...formopts.Option) (*formopts.Registry, error) {
	return formopts.NewRegistry(Definitions(), opts...)
}

package settings

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. The English catalog is the key itself.
const (
	MsgCodec          = "codec %s is not supported, expected mp3"
	MsgSampleRate     = "sample rate %d Hz is not allowed (allowed: %s)"
	MsgBitRate        = "bit rate %d kbps is below the minimum of %d kbps"
	MsgVBR            = "variable bit rate encoding is not allowed"
	MsgChannels       = "%d channels are not supported"
	MsgStereoRequired = "stereo audio is required, found %s"
	MsgNoFrames       = "no audio could be decoded"
	MsgTooShort       = "duration %s is shorter than the minimum of %s"

	MsgLoudnessUnmeasured = "too little audio to measure loudness"
	MsgLoudnessRate       = "loudness cannot be measured at %d Hz"
	MsgTooQuiet           = "loudness %.1f dB is %.1f dB below the target of %.1f dB"
	MsgTooLoud            = "loudness %.1f dB is %.1f dB above the target of %.1f dB"
	MsgClipping           = "%.4f%% of samples are clipped (%.2f s)"

	MsgNoiseUnmeasured = "too little audio to measure the noise floor"
	MsgNoiseFloor      = "noise floor %.1f dBFS exceeds %.1f dBFS"
	MsgSNR             = "signal-to-noise ratio %.1f dB is below the minimum of %.1f dB"

	MsgExtension      = "extension %q is not allowed (allowed: %s)"
	MsgPattern        = "file name does not match the naming pattern"
	MsgPatternInvalid = "naming pattern %q is invalid: %v"
	MsgNameLength     = "file name is %d characters long, the maximum is %d"
	MsgCharacters     = "file name contains forbidden characters: %s"
	MsgWhitespace     = "file name starts or ends with whitespace"

	MsgNoTag          = "file carries no tag"
	MsgTagUnreadable  = "tags could not be read: %v"
	MsgTagVersion     = "tag version %s is older than ID3v2.%d"
	MsgFieldMissing   = "required field %s is empty"
	MsgTagWarning     = "tag problem: %s"
	MsgLengthMismatch = "tag length %s differs from decoded length %s"

	MsgDecodeWarning  = "decoder: %s"
	MsgValidatorFault = "validator %s failed: %v"
	MsgUnsupported    = "unsupported audio stream (detected %s)"
	MsgReadFailed     = "file could not be read: %v"
	MsgDownloadFailed = "download failed: %v"
)

var german = map[string]string{
	MsgCodec:          "Codec %s wird nicht unterstützt, erwartet wird mp3",
	MsgSampleRate:     "Abtastrate %d Hz ist nicht erlaubt (erlaubt: %s)",
	MsgBitRate:        "Bitrate %d kbps liegt unter dem Minimum von %d kbps",
	MsgVBR:            "Variable Bitrate ist nicht erlaubt",
	MsgChannels:       "%d Kanäle werden nicht unterstützt",
	MsgStereoRequired: "Stereo ist erforderlich, gefunden: %s",
	MsgNoFrames:       "Es konnte kein Audio dekodiert werden",
	MsgTooShort:       "Dauer %s ist kürzer als das Minimum von %s",

	MsgLoudnessUnmeasured: "Zu wenig Audio, um die Lautheit zu messen",
	MsgLoudnessRate:       "Lautheit kann bei %d Hz nicht gemessen werden",
	MsgTooQuiet:           "Lautheit %.1f dB liegt %.1f dB unter dem Ziel von %.1f dB",
	MsgTooLoud:            "Lautheit %.1f dB liegt %.1f dB über dem Ziel von %.1f dB",
	MsgClipping:           "%.4f%% der Samples sind übersteuert (%.2f s)",

	MsgNoiseUnmeasured: "Zu wenig Audio, um den Grundrauschpegel zu messen",
	MsgNoiseFloor:      "Grundrauschen %.1f dBFS überschreitet %.1f dBFS",
	MsgSNR:             "Signal-Rausch-Abstand %.1f dB liegt unter dem Minimum von %.1f dB",

	MsgExtension:      "Endung %q ist nicht erlaubt (erlaubt: %s)",
	MsgPattern:        "Dateiname entspricht nicht dem Namensmuster",
	MsgPatternInvalid: "Namensmuster %q ist ungültig: %v",
	MsgNameLength:     "Dateiname ist %d Zeichen lang, erlaubt sind %d",
	MsgCharacters:     "Dateiname enthält unzulässige Zeichen: %s",
	MsgWhitespace:     "Dateiname beginnt oder endet mit Leerraum",

	MsgNoTag:          "Datei enthält keine Tags",
	MsgTagUnreadable:  "Tags konnten nicht gelesen werden: %v",
	MsgTagVersion:     "Tag-Version %s ist älter als ID3v2.%d",
	MsgFieldMissing:   "Pflichtfeld %s ist leer",
	MsgTagWarning:     "Tag-Problem: %s",
	MsgLengthMismatch: "Tag-Länge %s weicht von der dekodierten Länge %s ab",

	MsgDecodeWarning:  "Decoder: %s",
	MsgValidatorFault: "Validator %s ist fehlgeschlagen: %v",
	MsgUnsupported:    "Nicht unterstützter Audiostrom (erkannt: %s)",
	MsgReadFailed:     "Datei konnte nicht gelesen werden: %v",
	MsgDownloadFailed: "Download fehlgeschlagen: %v",
}

func init() {
	for key, msg := range german {
		if err := message.SetString(language.German, key, msg); err != nil {
			panic(err)
		}
	}
}

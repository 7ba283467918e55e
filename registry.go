// SPDX-License-Identifier: EPL-2.0

package audload

import (
	"github.com/ik5/audload/audio"
	"github.com/ik5/audload/formats/aiff"
	"github.com/ik5/audload/formats/mp3"
	"github.com/ik5/audload/formats/vorbis"
	"github.com/ik5/audload/formats/wav"
)

// DefaultRegistry returns a new registry with every built-in format keyed by
// its usual file extensions.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()

	reg.Register("wav", wav.Decoder{})
	reg.Register("wave", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})

	return reg
}

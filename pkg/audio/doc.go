// Package audio is an umbrella for the audio-processing sub-packages:
//
//   - wavio: WAV decode/encode with float64 sample buffers
//   - loudness: ITU-R BS.1770-4 integrated loudness measurement and gain
//   - vad: speech/silence detection and silence-based trimming
package audio

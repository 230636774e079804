// Package videocast streams live raw video as an H.264 bitstream over UDP.
//
// A caller supplies raw frames through a NeedDataFunc. A Session pulls one
// frame per tick at the configured rate, normalizes the pixel layout to
// planar 4:2:0, compresses it with one of the encoder backends and slices
// the resulting access unit into datagrams of at most MaxPayloadSize bytes.
//
// # Architecture
//
//	Software:  NeedData -> Convert -> Engine.Encode -> Packetizer -> Framer -> UDPSender
//	Pipeline:  NeedData -> appsrc ! videoconvert ! encoder ! appsink -> Packetizer -> Framer -> UDPSender
//
// The software backend runs the whole loop on a single goroutine and paces
// it with a sleep. The pipeline backend pushes frames into a GStreamer
// pipeline whose streaming thread delivers compressed buffers back through
// an appsink callback.
//
// # Codecs
//
//   - x264enc: GStreamer x264enc element (pipeline backend)
//   - omxh264enc: GStreamer OpenMAX hardware encoder (pipeline backend)
//   - x264: x264 through libmedia_h264, loaded with purego (software backend)
//
// libmedia_h264 is searched next to the executable, in build/ directories
// under the working directory and module root, and in the system library
// paths. Set VIDEOCAST_X264_LIB_PATH to point at it explicitly.
//
// # Wire Format
//
// By default each datagram is a raw slice of the Annex-B access unit with no
// header. Receivers concatenate datagrams in arrival order and must tolerate
// loss. FramingRTP switches to RFC 6184 packetization instead.
//
// # Build Tags
//
//   - nogst: build without the GStreamer pipeline backend
//   - nox264: build without the purego x264 engine
package videocast

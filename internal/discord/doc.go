// Package discord speaks the chat client's local rich presence IPC protocol.
//
// Frames are an 8 byte little-endian header (opcode, length) followed by a
// JSON body. A session starts with a handshake carrying the application id;
// the client answers with a DISPATCH/READY frame once it accepts the
// connection. Pings are answered with pongs. A close frame, a read error or a
// local Close ends the session and fires OnDisconnect exactly once.
//
// On Unix the endpoint is a socket named discord-ipc-N under the runtime or
// temp directory (including Flatpak and Snap subdirectories). On Windows it is
// the named pipe \\?\pipe\discord-ipc-N.
package discord

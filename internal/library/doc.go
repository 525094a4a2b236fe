// Package library scans an osu! Songs directory for playable beatmap sets.
//
// Each subfolder of Songs is one set. The first .osu file in the folder
// supplies Title, Artist, Creator, BeatmapSetID and AudioFilename. The audio
// file named by AudioFilename is used when it exists, otherwise the first
// .mp3 or .ogg in the folder. A BeatmapSetID that is missing or -1 falls back
// to the folder name up to the first space, which osu! sets to the set id.
//
// Library caches the scan and answers membership questions for the audio
// endpoint, so only files found by a scan are ever streamed.
package library

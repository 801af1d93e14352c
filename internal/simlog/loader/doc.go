// Package loader reads telemetry log files as text.
//
// Files are decoded as UTF-8 and, when that fails, as GBK, which is what
// the producer's Windows hosts write. A leading UTF-8 byte order mark is
// removed. No parsing happens here.
package loader

// Package checksum provides content hashing with normalization support.
//
// Two checksums are offered:
//
//   - Raw checksum: hash of the exact content. The scan service keys its
//     result cache on it, so any edit invalidates the cached extraction.
//   - Normalized checksum: hash after removing Java comments and collapsing
//     whitespace. The extraction driver uses it to drop paragraphs whose
//     source text differs only in formatting.
//
// # Example Usage
//
//	calculator := checksum.New()
//	raw := calculator.CalculateRaw(fileContent)
//	normalized := calculator.CalculateNormalized(paragraph)
//
// # Thread Safety
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum

// Package shared holds code reused across travelboard packages that belongs to
// no single layer. Its testutil subpackage builds tracker workbooks in memory,
// serves them through an in-memory source and captures slog output for
// assertions.
package shared

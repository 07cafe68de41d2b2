// Package imaging loads images and prepares them for blob detection.
//
// It decodes and caches image files, reduces color images to 8-bit gray,
// crops regions of interest and draws detected objects back over an image.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Cropped images start at (0,0). Callers that detect inside a region add the
// region's top-left corner to map results back to the source image.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The other functions are
// stateless and never modify their input images.
package imaging

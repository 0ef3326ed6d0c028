package codec

import "fmt"

// Route string builders (spec.md §6.3). FIN is the one literal exception:
// it carries no per-device component, unlike every other frame type.
const routeFind = "nar/device/find"

func routeHeartbeat(id string) string { return fmt.Sprintf("nar/device/%s/heartbeat", id) }
func routeStop(id string) string      { return fmt.Sprintf("nar/device/%s/stop", id) }
func routeRegister(id string) string  { return fmt.Sprintf("nar/device/%s/register", id) }

func routeStatic(id string, uid uint32) string {
	return fmt.Sprintf("nar/device/%s/%d/static", id, uid)
}

func routeStreamStrInit(id string, uid uint32) string {
	return fmt.Sprintf("nar/device/%s/%d/streamstr", id, uid)
}
func routeStreamStrChunk(id string, uid uint32) string {
	return fmt.Sprintf("nar/device/%s/%d/streamstr/chunk", id, uid)
}

func routeAudioInit(id string, uid uint32) string {
	return fmt.Sprintf("nar/device/%s/%d/audio", id, uid)
}
func routeAudioChunk(id string, uid uint32) string {
	return fmt.Sprintf("nar/device/%s/%d/audio/chunk", id, uid)
}

func routeImageInit(id string, uid uint32) string {
	return fmt.Sprintf("nar/device/%s/%d/img", id, uid)
}
func routeImageChunk(id string, uid uint32) string {
	return fmt.Sprintf("nar/device/%s/%d/img/chunk", id, uid)
}

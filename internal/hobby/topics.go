package hobby

// Hobby API topic layout. The error topic for locations is singular on
// the wire; that is not a typo.
const (
	TopicDevicesCmd = "hobby/control/devices/cmd"
	TopicDevicesRsp = "hobby/control/devices/rsp"
	TopicDevicesErr = "hobby/control/devices/err"
	TopicDevicesEvt = "hobby/control/devices/evt"

	TopicLocationsCmd = "hobby/control/locations/cmd"
	TopicLocationsRsp = "hobby/control/locations/rsp"
	TopicLocationErr  = "hobby/control/location/err"

	TopicSystemCmd = "hobby/system/cmd"
	TopicSystemRsp = "hobby/system/rsp"
	TopicSystemErr = "hobby/system/err"
	TopicSystemEvt = "hobby/system/evt"

	TopicTimeRsp = "hobby/control/time/rsp"

	TopicNotificationCmd = "hobby/notification/cmd"
	TopicNotificationRsp = "hobby/notification/rsp"
	TopicNotificationErr = "hobby/notification/err"
	TopicNotificationEvt = "hobby/notification/evt"
)

// subscribeTopics lists every topic the client listens on.
var subscribeTopics = []string{
	TopicDevicesRsp,
	TopicDevicesErr,
	TopicDevicesEvt,
	TopicLocationsRsp,
	TopicLocationErr,
	TopicSystemRsp,
	TopicSystemErr,
	TopicSystemEvt,
	TopicTimeRsp,
	TopicNotificationRsp,
	TopicNotificationErr,
	TopicNotificationEvt,
}

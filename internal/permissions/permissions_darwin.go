//go:build darwin

package permissions

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Foundation -framework AVFoundation -framework ApplicationServices
#import <AVFoundation/AVFoundation.h>
#import <ApplicationServices/ApplicationServices.h>

static int micStatus(void) {
    return (int)[AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
}

static void micRequest(void) {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}

static int axTrusted(void) {
    NSDictionary *opts = @{(__bridge id)kAXTrustedCheckOptionPrompt: @YES};
    return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)opts) ? 1 : 0;
}
*/
import "C"

func init() {
	microphoneStatus = func() Status { return Status(C.micStatus()) }
	requestMicrophone = func() { C.micRequest() }
	inputHookTrusted = func() bool { return C.axTrusted() == 1 }
}

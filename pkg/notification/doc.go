// Package notification sends templated notices to members over one or more
// delivery systems.
//
// A NotificationManager maps a NoticeType to one template per system and a
// Notifier per system. Sending a notice renders its template for every
// system it is registered on:
//
//	nm := notification.NewNotificationManager("https://app.ukhsc.org")
//	emailer, err := notification.NewEmailNotifier(smtpConfig)
//	if err != nil {
//		return err
//	}
//	nm.RegisterNotifier(notification.EmailSystem, emailer)
//	err = nm.RegisterNotification(NewDeviceNotice, notification.EmailSystem, notification.NoticeTemplate{
//		Subject: "New sign-in to your account",
//		Text:    "Hi {{.Name}}, ...",
//	})
//
// Only SMTP email ships today. MockNotifier records notices for tests.
package notification
